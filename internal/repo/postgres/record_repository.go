package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Проверка, что RecordRepository удовлетворяет интерфейсу CatalogRepository.
var _ ports.CatalogRepository = (*RecordRepository)(nil)

const recordColumns = `id::text, artist, album, price, qty, format, category,
	COALESCE(mbid, ''), track_list, version, created, last_modified`

// sortColumns — белый список колонок сортировки (в SQL подставляется только значение из карты).
var sortColumns = map[string]string{
	domain.SortByArtist:  "artist",
	domain.SortByAlbum:   "album",
	domain.SortByPrice:   "price",
	domain.SortByQty:     "qty",
	domain.SortByCreated: "created",
}

// RecordRepository — каталог пластинок на Postgres (pgxpool).
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository - конструктор RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository { return &RecordRepository{pool: pool} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec              domain.Record
		format, category string
	)
	if err := row.Scan(
		&rec.ID, &rec.Artist, &rec.Album, &rec.Price, &rec.Qty, &format, &category,
		&rec.MBID, &rec.TrackList, &rec.Version, &rec.Created, &rec.LastModified,
	); err != nil {
		return nil, err
	}
	rec.Format = domain.Format(format)
	rec.Category = domain.Category(category)
	if rec.TrackList == nil {
		rec.TrackList = []domain.Track{}
	}
	return &rec, nil
}

// GetByID — (nil, nil), если записи нет.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	if !validID(id) {
		return nil, nil
	}
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	return rec, nil
}

// FindByKey — поиск по тройке уникальности (точное совпадение, как у индекса).
func (r *RecordRepository) FindByKey(ctx context.Context, key domain.RecordKey) (*domain.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE artist = $1 AND album = $2 AND format = $3`,
		key.Artist, key.Album, string(key.Format),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select record by key: %w", err)
	}
	return rec, nil
}

// List — страница каталога по фильтру и общее число подходящих записей.
func (r *RecordRepository) List(ctx context.Context, filter domain.RecordFilter) ([]*domain.Record, int, error) {
	f := filter.Normalize()
	where, args := buildRecordWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM records`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	dir := "ASC"
	if f.SortDirection == domain.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM records%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		recordColumns, where, sortColumns[f.SortBy], dir, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Record, 0, f.Limit)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan record: %w", scanErr)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate records: %w", err)
	}
	return list, total, nil
}

// Insert — вставка новой позиции; нарушение уникального индекса → доменный Conflict.
func (r *RecordRepository) Insert(ctx context.Context, rec *domain.Record) error {
	if rec.TrackList == nil {
		rec.TrackList = []domain.Track{}
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO records (
			id, artist, album, price, qty, format, category, mbid, track_list, version, created, last_modified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
	`,
		rec.ID, rec.Artist, rec.Album, rec.Price, rec.Qty, string(rec.Format), string(rec.Category),
		rec.MBID, rec.TrackList, rec.Version, rec.Created, rec.LastModified,
	)
	if pgCode(err) == pgErrUniqueViolation {
		return domain.DuplicateRecord(rec.Key())
	}
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func buildRecordWhere(f domain.RecordFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Q != "" {
		p := next("%" + escapeLike(f.Q) + "%")
		conds = append(conds, fmt.Sprintf("(artist ILIKE %[1]s OR album ILIKE %[1]s OR category ILIKE %[1]s)", p))
	}
	if f.Artist != "" {
		conds = append(conds, "artist ILIKE "+next("%"+escapeLike(f.Artist)+"%"))
	}
	if f.Album != "" {
		conds = append(conds, "album ILIKE "+next("%"+escapeLike(f.Album)+"%"))
	}
	if f.Format != "" {
		conds = append(conds, "format = "+next(string(f.Format)))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(string(f.Category)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike — экранирует спецсимволы LIKE (\ — escape-символ по умолчанию в Postgres).
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
