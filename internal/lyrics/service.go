package lyrics

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/logger"
	"github.com/sukalov/lyricsbot/internal/lyrics/parsers/letras"
)

// ArtistScraper downloads every song of an artist page.
type ArtistScraper interface {
	ScrapeArtist(ctx context.Context, artistURL string) ([]corpus.Song, error)
}

// Service picks the scraper matching an artist URL.
type Service struct {
	scrapers map[string]ArtistScraper
}

// NewService creates a new lyrics service
func NewService(letrasParser *letras.Parser) *Service {
	return &Service{
		scrapers: map[string]ArtistScraper{
			"letras.com": letrasParser,
		},
	}
}

// ScrapeArtist builds a corpus from an artist page.
func (s *Service) ScrapeArtist(ctx context.Context, artistURL string) ([]corpus.Song, error) {
	logger.Debug(fmt.Sprintf("ScrapeArtist called with URL: %s", artistURL))

	parsed, err := url.Parse(artistURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", artistURL, err)
	}

	host := parsed.Hostname()
	for domain, scraper := range s.scrapers {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			logger.Debug(fmt.Sprintf("Detected %s URL", domain))
			return scraper.ScrapeArtist(ctx, artistURL)
		}
	}

	logger.Error(fmt.Sprintf("Unsupported URL source: %s", artistURL))
	return nil, fmt.Errorf("unsupported URL source: %s", artistURL)
}
