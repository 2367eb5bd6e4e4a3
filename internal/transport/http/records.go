package rest

import (
	"net/http"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/pkg/httpx"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createRecord(c *gin.Context) {
	var body createRecordRequest
	if err := decodeStrict(c, &body); err != nil {
		h.respondError(c, "CreateRecord", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	rec, err := h.catalog.CreateRecord(ctx, mustRequester(c), body.toRecord())
	if err != nil {
		h.respondError(c, "CreateRecord", err)
		return
	}
	respond(c, http.StatusCreated, msgRecordCreated, rec)
}

func (h *Handler) updateRecord(c *gin.Context) {
	id := c.Param("id")
	var body updateRecordRequest
	if err := decodeStrict(c, &body); err != nil {
		h.respondError(c, "UpdateRecord", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	rec, err := h.catalog.UpdateRecord(ctx, mustRequester(c), id, body.toPatch())
	if err != nil {
		h.respondError(c, "UpdateRecord", err)
		return
	}
	respond(c, http.StatusOK, msgRecordUpdated, rec)
}

func (h *Handler) deleteRecord(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.catalog.DeleteRecord(ctx, mustRequester(c), c.Param("id")); err != nil {
		h.respondError(c, "DeleteRecord", err)
		return
	}
	respond(c, http.StatusOK, msgRecordDeleted, nil)
}

func (h *Handler) findRecords(c *gin.Context) {
	filter, err := recordFilterFromQuery(c)
	if err != nil {
		h.respondError(c, "FindRecords", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	page, err := h.catalog.FindRecords(ctx, filter)
	if err != nil {
		h.respondError(c, "FindRecords", err)
		return
	}
	respond(c, http.StatusOK, msgRecordsList, page)
}

func (h *Handler) findRecord(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	rec, err := h.catalog.FindRecord(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, "FindRecord", err)
		return
	}
	respond(c, http.StatusOK, msgRecordRetrieved, rec)
}

// recordFilterFromQuery — фильтр каталога из query; некорректные format/category → BadRequest.
// Сортировка нормализуется сервисом.
func recordFilterFromQuery(c *gin.Context) (domain.RecordFilter, error) {
	f := domain.RecordFilter{
		Q:             httpx.QueryTrim(c, "q"),
		Artist:        httpx.QueryTrim(c, "artist"),
		Album:         httpx.QueryTrim(c, "album"),
		SortBy:        httpx.QueryTrim(c, "sortBy"),
		SortDirection: httpx.QueryTrim(c, "sortDirection"),
	}
	if v := httpx.QueryTrim(c, "format"); v != "" {
		if !domain.Format(v).Valid() {
			return f, domain.BadRequest("invalid format %q", v)
		}
		f.Format = domain.Format(v)
	}
	if v := httpx.QueryTrim(c, "category"); v != "" {
		if !domain.Category(v).Valid() {
			return f, domain.BadRequest("invalid category %q", v)
		}
		f.Category = domain.Category(v)
	}
	f.Page, f.Limit = httpx.ParsePageLimit(c, domain.DefaultLimit, domain.MaxLimit)
	return f, nil
}
