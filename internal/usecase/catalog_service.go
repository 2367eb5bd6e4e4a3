package usecase

import (
	"context"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/Gunvolt24/record_shop/pkg/metrics"
)

// Проверка, что CatalogService удовлетворяет порту транспорта.
var _ ports.CatalogService = (*CatalogService)(nil)

// CatalogService — каталог пластинок: уникальность тройки (artist, album, format),
// обогащение списком треков и кэшируемые чтения.
type CatalogService struct {
	store     ports.InventoryStore
	records   ports.CatalogRepository
	cache     cacheLayer
	policy    ports.AccessPolicy
	lookup    ports.MetadataLookup
	validator ports.RecordValidator
	log       ports.Logger
	opts      Options
}

// NewCatalogService — DI-конструктор.
func NewCatalogService(
	store ports.InventoryStore,
	records ports.CatalogRepository,
	cache ports.CacheStore,
	policy ports.AccessPolicy,
	lookup ports.MetadataLookup,
	validator ports.RecordValidator,
	log ports.Logger,
	opts Options,
) *CatalogService {
	return &CatalogService{
		store:     store,
		records:   records,
		cache:     newCacheLayer(cache, log),
		policy:    policy,
		lookup:    lookup,
		validator: validator,
		log:       log,
		opts:      opts.withDefaults(),
	}
}

// CreateRecord — новая позиция каталога (только администратор).
// При указанном MBID список треков обязателен: ошибка источника → InternalError, пустой список → BadRequest.
func (s *CatalogService) CreateRecord(ctx context.Context, req domain.Requester, in *domain.Record) (*domain.Record, error) {
	if !s.policy.IsElevated(req.Role) {
		return nil, domain.Unauthorized(domain.MsgAdminOnly)
	}
	rec := in.Clone()
	rec.Artist = strings.TrimSpace(rec.Artist)
	rec.Album = strings.TrimSpace(rec.Album)
	rec.MBID = strings.TrimSpace(rec.MBID)

	if err := s.validator.Validate(ctx, rec); err != nil {
		return nil, domain.BadRequest("%s", err.Error())
	}

	existing, err := s.records.FindByKey(ctx, rec.Key())
	if err != nil {
		s.log.Errorf(ctx, "records.FindByKey failed err=%v", err)
		return nil, err
	}
	if existing != nil {
		return nil, domain.DuplicateRecord(rec.Key())
	}

	if rec.MBID != "" {
		tracks, err := s.fetchTracks(ctx, rec.MBID)
		if err != nil {
			return nil, err
		}
		rec.TrackList = tracks
	}
	if rec.TrackList == nil {
		rec.TrackList = []domain.Track{}
	}

	now := s.opts.Now()
	rec.ID = s.opts.NewID()
	rec.Created, rec.LastModified = now, now
	rec.Version = 1

	err = s.records.Insert(ctx, rec)
	metrics.RecordMutations.WithLabelValues("create", resultLabel(err)).Inc()
	if err != nil {
		s.log.Warnf(ctx, "records.Insert failed artist=%q album=%q format=%s err=%v", rec.Artist, rec.Album, rec.Format, err)
		return nil, err
	}

	s.cache.invalidate(ctx, recordsListPattern())
	s.log.Infof(ctx, "record created id=%s artist=%q album=%q format=%s", rec.ID, rec.Artist, rec.Album, rec.Format)
	return rec, nil
}

// UpdateRecord — частичное изменение позиции (только администратор) внутри её атомарной единицы,
// поэтому правка остатка сериализуется с заказами. Запрос треков выполняется до открытия единицы.
func (s *CatalogService) UpdateRecord(ctx context.Context, req domain.Requester, id string, patch domain.RecordPatch) (*domain.Record, error) {
	if !s.policy.IsElevated(req.Role) {
		return nil, domain.Unauthorized(domain.MsgAdminOnly)
	}
	if patch.IsEmpty() {
		return nil, domain.BadRequest(domain.MsgEmptyPatch)
	}
	trimPatch(&patch)
	if err := s.validator.ValidatePatch(ctx, &patch); err != nil {
		return nil, domain.BadRequest("%s", err.Error())
	}

	current, err := s.records.GetByID(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "records.GetByID failed id=%s err=%v", id, err)
		return nil, err
	}
	if current == nil {
		return nil, domain.NotFound(domain.MsgRecordNotFound, id)
	}

	candidate := current.Clone()
	patch.Apply(candidate)
	if err := s.validator.Validate(ctx, candidate); err != nil {
		return nil, domain.BadRequest("%s", err.Error())
	}

	if candidate.Key() != current.Key() {
		other, err := s.records.FindByKey(ctx, candidate.Key())
		if err != nil {
			s.log.Errorf(ctx, "records.FindByKey failed err=%v", err)
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, domain.Conflict(domain.DuplicateRecord(candidate.Key()).Details, domain.MsgRecordUpdateDuplicate)
		}
	}

	var tracks []domain.Track
	mbidChanged := patch.MBID != nil && *patch.MBID != current.MBID
	if mbidChanged && *patch.MBID != "" {
		if tracks, err = s.fetchTracks(ctx, *patch.MBID); err != nil {
			return nil, err
		}
	}

	var updated *domain.Record
	err = withRetry(ctx, s.opts.Retry, s.log, "record_update", func(ctx context.Context) error {
		return s.store.WithinRecord(ctx, id, func(ctx context.Context, tx ports.InventoryTx, _ *domain.Order, rec *domain.Record) error {
			if rec == nil {
				return domain.NotFound(domain.MsgRecordNotFound, id)
			}
			patch.Apply(rec)
			switch {
			case tracks != nil:
				rec.TrackList = tracks
			case mbidChanged && patch.TrackList == nil:
				rec.TrackList = []domain.Track{}
			}
			rec.LastModified = s.opts.Now()
			if err := tx.SaveRecord(ctx, rec); err != nil {
				return err
			}
			updated = rec
			return nil
		})
	})
	metrics.RecordMutations.WithLabelValues("update", resultLabel(err)).Inc()
	if err != nil {
		s.log.Warnf(ctx, "record update failed id=%s err=%v", id, err)
		return nil, err
	}

	// Проекция пластинки (цена) входит в закэшированные заказы.
	s.cache.invalidate(ctx,
		recordsListPattern(), recordDetailPattern(id),
		ordersListPattern(), allOrderDetailsPattern(),
	)
	s.log.Infof(ctx, "record updated id=%s qty=%d price=%s", updated.ID, updated.Qty, updated.Price)
	return updated, nil
}

// DeleteRecord — удаление позиции (только администратор); запрещено, пока на неё ссылаются заказы.
func (s *CatalogService) DeleteRecord(ctx context.Context, req domain.Requester, id string) error {
	if !s.policy.IsElevated(req.Role) {
		return domain.Unauthorized(domain.MsgAdminOnly)
	}

	err := withRetry(ctx, s.opts.Retry, s.log, "record_delete", func(ctx context.Context) error {
		return s.store.WithinRecord(ctx, id, func(ctx context.Context, tx ports.InventoryTx, _ *domain.Order, rec *domain.Record) error {
			if rec == nil {
				return domain.NotFound(domain.MsgRecordNotFound, id)
			}
			n, err := tx.CountOrders(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Conflict(map[string]any{"orders": n}, domain.MsgRecordHasOrders, id, n)
			}
			return tx.DeleteRecord(ctx, id)
		})
	})
	metrics.RecordMutations.WithLabelValues("delete", resultLabel(err)).Inc()
	if err != nil {
		s.log.Warnf(ctx, "record delete failed id=%s err=%v", id, err)
		return err
	}

	s.cache.invalidate(ctx, recordsListPattern(), recordDetailPattern(id))
	s.log.Infof(ctx, "record deleted id=%s", id)
	return nil
}

// FindRecords — страница каталога по фильтру (через кэш).
func (s *CatalogService) FindRecords(ctx context.Context, filter domain.RecordFilter) (domain.Page[*domain.Record], error) {
	f := filter.Normalize()
	return readThrough(ctx, s.cache, s.opts.Cache.RecordsList, f.CacheParams(),
		func(ctx context.Context) (domain.Page[*domain.Record], error) {
			items, total, err := s.records.List(ctx, f)
			if err != nil {
				s.log.Errorf(ctx, "records.List failed err=%v", err)
				return domain.Page[*domain.Record]{}, err
			}
			return domain.NewPage(items, total, f.Page, f.Limit), nil
		})
}

// FindRecord — карточка пластинки (через кэш).
func (s *CatalogService) FindRecord(ctx context.Context, id string) (*domain.Record, error) {
	return readThrough(ctx, s.cache, s.opts.Cache.RecordDetail, map[string]any{"id": id},
		func(ctx context.Context) (*domain.Record, error) {
			rec, err := s.records.GetByID(ctx, id)
			if err != nil {
				s.log.Errorf(ctx, "records.GetByID failed id=%s err=%v", id, err)
				return nil, err
			}
			if rec == nil {
				return nil, domain.NotFound(domain.MsgRecordNotFound, id)
			}
			return rec, nil
		})
}

func (s *CatalogService) fetchTracks(ctx context.Context, mbid string) ([]domain.Track, error) {
	tracks, err := s.lookup.FetchTrackList(ctx, mbid)
	if err != nil {
		s.log.Warnf(ctx, "metadata lookup failed mbid=%s err=%v", mbid, err)
		return nil, domain.Internal(err, domain.MsgMetadataFetchFailed, mbid)
	}
	if len(tracks) == 0 {
		return nil, domain.BadRequest(domain.MsgMetadataEmpty, mbid)
	}
	return tracks, nil
}

func trimPatch(p *domain.RecordPatch) {
	for _, f := range []*string{p.Artist, p.Album, p.MBID} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
