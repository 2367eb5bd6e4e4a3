package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Format — носитель пластинки.
type Format string

const (
	FormatVinyl    Format = "Vinyl"
	FormatCD       Format = "CD"
	FormatCassette Format = "Cassette"
	FormatDigital  Format = "Digital"
)

// Formats — все допустимые носители.
var Formats = []Format{FormatVinyl, FormatCD, FormatCassette, FormatDigital}

// Valid — носитель входит в перечисление.
func (f Format) Valid() bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

// Category — жанровая категория.
type Category string

const (
	CategoryRock        Category = "Rock"
	CategoryJazz        Category = "Jazz"
	CategoryHipHop      Category = "Hip-Hop"
	CategoryClassical   Category = "Classical"
	CategoryPop         Category = "Pop"
	CategoryAlternative Category = "Alternative"
	CategoryIndie       Category = "Indie"
	CategoryElectronic  Category = "Electronic"
)

// Categories — все допустимые категории.
var Categories = []Category{
	CategoryRock, CategoryJazz, CategoryHipHop, CategoryClassical,
	CategoryPop, CategoryAlternative, CategoryIndie, CategoryElectronic,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Track — трек из списка композиций релиза.
type Track struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Position int    `json:"position"`
}

// Record — позиция каталога (пластинка) со своей ценой и остатком на складе.
type Record struct {
	ID           string          `json:"id"`
	Artist       string          `json:"artist"`
	Album        string          `json:"album"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
	Format       Format          `json:"format"`
	Category     Category        `json:"category"`
	MBID         string          `json:"mbid,omitempty"`
	TrackList    []Track         `json:"trackList"`
	Created      time.Time       `json:"created"`
	LastModified time.Time       `json:"lastModified"`
	Version      int64           `json:"-"`
}

// RecordKey — ключ уникальности позиции каталога.
type RecordKey struct {
	Artist string
	Album  string
	Format Format
}

// Key — ключ уникальности (artist, album, format).
func (r *Record) Key() RecordKey {
	return RecordKey{Artist: r.Artist, Album: r.Album, Format: r.Format}
}

// Clone — глубокая копия (список треков не разделяется).
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.TrackList != nil {
		cp.TrackList = append([]Track(nil), r.TrackList...)
	}
	return &cp
}

// Summary — проекция пластинки, которую видит покупатель в заказе.
func (r *Record) Summary() *RecordSummary {
	return &RecordSummary{Artist: r.Artist, Album: r.Album, Format: r.Format, Price: r.Price}
}

// RecordSummary — read-only проекция пластинки для списка заказов.
type RecordSummary struct {
	Artist string          `json:"artist"`
	Album  string          `json:"album"`
	Format Format          `json:"format"`
	Price  decimal.Decimal `json:"price"`
}

// RecordPatch — частичное изменение позиции каталога; nil-поле не трогается.
type RecordPatch struct {
	Artist    *string
	Album     *string
	Price     *decimal.Decimal
	Qty       *int
	Format    *Format
	Category  *Category
	MBID      *string
	TrackList []Track
}

// IsEmpty — в патче нет ни одного поля.
func (p *RecordPatch) IsEmpty() bool {
	return p.Artist == nil && p.Album == nil && p.Price == nil && p.Qty == nil &&
		p.Format == nil && p.Category == nil && p.MBID == nil && p.TrackList == nil
}

// Apply — применяет патч к записи (без валидации).
func (p *RecordPatch) Apply(r *Record) {
	if p.Artist != nil {
		r.Artist = *p.Artist
	}
	if p.Album != nil {
		r.Album = *p.Album
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Qty != nil {
		r.Qty = *p.Qty
	}
	if p.Format != nil {
		r.Format = *p.Format
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.MBID != nil {
		r.MBID = *p.MBID
	}
	if p.TrackList != nil {
		r.TrackList = append([]Track(nil), p.TrackList...)
	}
}

// Sort fields accepted by RecordFilter.
const (
	SortByArtist  = "artist"
	SortByAlbum   = "album"
	SortByPrice   = "price"
	SortByQty     = "qty"
	SortByCreated = "created"

	SortAsc  = "asc"
	SortDesc = "desc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// RecordFilter — параметры поиска по каталогу.
type RecordFilter struct {
	Q             string
	Artist        string
	Album         string
	Format        Format
	Category      Category
	Page          int
	Limit         int
	SortBy        string
	SortDirection string
}

// Normalize — подставляет значения по умолчанию и зажимает пагинацию в допустимые границы.
func (f RecordFilter) Normalize() RecordFilter {
	f.Q = strings.TrimSpace(f.Q)
	f.Artist = strings.TrimSpace(f.Artist)
	f.Album = strings.TrimSpace(f.Album)
	f.Page, f.Limit = ClampPage(f.Page, f.Limit)

	switch f.SortBy {
	case SortByArtist, SortByAlbum, SortByPrice, SortByQty, SortByCreated:
	default:
		f.SortBy = SortByArtist
	}
	if f.SortDirection != SortDesc {
		f.SortDirection = SortAsc
	}
	return f
}

// Offset — смещение для выборки страницы.
func (f RecordFilter) Offset() int { return (f.Page - 1) * f.Limit }

// CacheParams — канонические параметры фильтра для ключа кэша; пустые поля не попадают в ключ.
func (f RecordFilter) CacheParams() map[string]any {
	params := map[string]any{
		"page":          f.Page,
		"limit":         f.Limit,
		"sortBy":        f.SortBy,
		"sortDirection": f.SortDirection,
	}
	putNonEmpty(params, "q", f.Q)
	putNonEmpty(params, "artist", f.Artist)
	putNonEmpty(params, "album", f.Album)
	putNonEmpty(params, "format", string(f.Format))
	putNonEmpty(params, "category", string(f.Category))
	return params
}

// Matches — запись проходит фильтр (без учёта пагинации).
func (f RecordFilter) Matches(r *Record) bool {
	if f.Q != "" {
		q := strings.ToLower(f.Q)
		if !strings.Contains(strings.ToLower(r.Artist), q) &&
			!strings.Contains(strings.ToLower(r.Album), q) &&
			!strings.Contains(strings.ToLower(string(r.Category)), q) {
			return false
		}
	}
	if f.Artist != "" && !strings.Contains(strings.ToLower(r.Artist), strings.ToLower(f.Artist)) {
		return false
	}
	if f.Album != "" && !strings.Contains(strings.ToLower(r.Album), strings.ToLower(f.Album)) {
		return false
	}
	if f.Format != "" && r.Format != f.Format {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	return true
}

func putNonEmpty(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

// ClampPage — page >= 1, limit в [1, MaxLimit]; нули заменяются значениями по умолчанию.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return page, limit
}
