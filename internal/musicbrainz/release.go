package musicbrainz

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Gunvolt24/record_shop/internal/domain"
)

// Структуры ответа /release/{mbid}; пространство имён mmd-2.0 не проверяется.
type metadataXML struct {
	XMLName xml.Name    `xml:"metadata"`
	Release *releaseXML `xml:"release"`
}

type releaseXML struct {
	Title  string      `xml:"title"`
	Medium []mediumXML `xml:"medium-list>medium"`
}

type mediumXML struct {
	Position string     `xml:"position"`
	Tracks   []trackXML `xml:"track-list>track"`
}

type trackXML struct {
	Title     string       `xml:"title"`
	Length    string       `xml:"length"`
	Position  string       `xml:"position"`
	Number    string       `xml:"number"`
	Recording recordingXML `xml:"recording"`
}

type recordingXML struct {
	Title  string `xml:"title"`
	Length string `xml:"length"`
}

func parseRelease(r io.Reader) ([]domain.Track, error) {
	var md metadataXML
	if err := xml.NewDecoder(r).Decode(&md); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode xml: %w", err)
	}
	if md.Release == nil {
		return []domain.Track{}, nil
	}

	tracks := make([]domain.Track, 0)
	for _, m := range md.Release.Medium {
		for i, t := range m.Tracks {
			tracks = append(tracks, domain.Track{
				Title:    firstNonEmpty(t.Title, t.Recording.Title, "Unknown"),
				Duration: formatDuration(firstNonEmpty(t.Length, t.Recording.Length)),
				Position: trackPosition(t, i),
			})
		}
	}
	return tracks, nil
}

// trackPosition — position, затем number, затем порядковый номер на носителе (с 1).
func trackPosition(t trackXML, index int) int {
	for _, s := range []string{t.Position, t.Number} {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n
		}
	}
	return index + 1
}

// formatDuration — миллисекунды в m:ss; пустое или нечисловое значение даёт 0:00.
func formatDuration(ms string) string {
	v, err := strconv.ParseInt(strings.TrimSpace(ms), 10, 64)
	if err != nil || v < 0 {
		v = 0
	}
	return fmt.Sprintf("%d:%02d", v/60000, (v%60000)/1000)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
