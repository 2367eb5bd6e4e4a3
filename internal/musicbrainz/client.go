// Package musicbrainz — клиент MusicBrainz Web Service (XML) для получения списка треков релиза.
package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gunvolt24/record_shop/internal/domain"
	"github.com/Gunvolt24/record_shop/internal/ports"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Проверка, что Client удовлетворяет интерфейсу MetadataLookup.
var _ ports.MetadataLookup = (*Client)(nil)

const releaseInc = "recordings+artist-credits+labels+discids+media"

// maxBody — ограничение на размер ответа (бокс-сеты бывают большими).
const maxBody = 8 << 20

// Config — параметры клиента.
type Config struct {
	BaseURL    string // например https://musicbrainz.org/ws/2
	UserAgent  string // MusicBrainz требует осмысленный User-Agent
	Timeout    time.Duration
	MaxRetries uint64        // повторы при 429/503 и сетевых ошибках
	RetryDelay time.Duration // начальная задержка экспоненциального backoff
}

// Client — реализация ports.MetadataLookup поверх HTTP.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	backoff   func() retry.Backoff
}

// New — клиент с otelhttp-транспортом; нулевые поля конфига заменяются значениями по умолчанию.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("musicbrainz: base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("musicbrainz: parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "record-shop/1.0"
	}

	maxRetries, delay := cfg.MaxRetries, cfg.RetryDelay
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		backoff: func() retry.Backoff {
			b := retry.NewExponential(delay)
			b = retry.WithJitterPercent(20, b)
			return retry.WithMaxRetries(maxRetries, b)
		},
	}, nil
}

// FetchTrackList — треки всех носителей релиза в порядке следования.
// Релиз не найден (404) — пустой список без ошибки.
func (c *Client) FetchTrackList(ctx context.Context, mbid string) ([]domain.Track, error) {
	endpoint := c.baseURL + "/release/" + url.PathEscape(mbid) + "?inc=" + releaseInc

	var tracks []domain.Track
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		var err error
		tracks, err = c.fetchOnce(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]domain.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retry.RetryableError(fmt.Errorf("musicbrainz: request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return []domain.Track{}, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, retry.RetryableError(fmt.Errorf("musicbrainz: status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("musicbrainz: unexpected status %d", resp.StatusCode)
	}

	return parseRelease(io.LimitReader(resp.Body, maxBody))
}
