package ports

import (
	"context"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// MetadataLookup — внешний источник списка треков по MusicBrainz ID.
// Пустой список без ошибки означает, что релиз не найден или в нём нет треков.
type MetadataLookup interface {
	FetchTrackList(ctx context.Context, mbid string) ([]domain.Track, error)
}
