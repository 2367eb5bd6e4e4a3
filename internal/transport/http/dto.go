package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 1 << 20

// createRecordRequest — тело POST /records.
type createRecordRequest struct {
	Artist    string          `json:"artist"`
	Album     string          `json:"album"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	Format    domain.Format   `json:"format"`
	Category  domain.Category `json:"category"`
	MBID      string          `json:"mbid"`
	TrackList []domain.Track  `json:"trackList"`
}

func (r createRecordRequest) toRecord() *domain.Record {
	return &domain.Record{
		Artist:    r.Artist,
		Album:     r.Album,
		Price:     r.Price,
		Qty:       r.Qty,
		Format:    r.Format,
		Category:  r.Category,
		MBID:      r.MBID,
		TrackList: r.TrackList,
	}
}

// updateRecordRequest — тело PUT /records/:id; отсутствующие поля не меняются.
type updateRecordRequest struct {
	Artist    *string          `json:"artist"`
	Album     *string          `json:"album"`
	Price     *decimal.Decimal `json:"price"`
	Qty       *int             `json:"qty"`
	Format    *domain.Format   `json:"format"`
	Category  *domain.Category `json:"category"`
	MBID      *string          `json:"mbid"`
	TrackList []domain.Track   `json:"trackList"`
}

func (r updateRecordRequest) toPatch() domain.RecordPatch {
	return domain.RecordPatch{
		Artist:    r.Artist,
		Album:     r.Album,
		Price:     r.Price,
		Qty:       r.Qty,
		Format:    r.Format,
		Category:  r.Category,
		MBID:      r.MBID,
		TrackList: r.TrackList,
	}
}

// decodeStrict — JSON-тело без неизвестных полей и хвостовых данных.
func decodeStrict(c *gin.Context, dst any) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return domain.BadRequest("invalid request body: %v", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.BadRequest("request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.BadRequest("invalid json: %s", describeJSONError(err))
	}
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		return domain.BadRequest("invalid json: trailing data")
	}
	return nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type)
	}
	return err.Error()
}
