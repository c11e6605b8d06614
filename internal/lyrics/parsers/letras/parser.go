package letras

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/logger"
)

// Parser handles the HTML parsing and lyrics extraction
type Parser struct {
	client  *Client
	baseURL *url.URL
	// Delay is waited before every lyrics request.
	Delay time.Duration
}

// NewParser creates a parser resolving relative song links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return &Parser{
		client:  NewClient(),
		baseURL: base,
		Delay:   2 * time.Second,
	}, nil
}

// ListSongs returns every song row of an artist page.
func (p *Parser) ListSongs(ctx context.Context, artistURL string) ([]SongRef, error) {
	doc, err := p.client.Document(ctx, artistURL)
	if err != nil {
		return nil, err
	}

	var songs []SongRef
	doc.Find(songRowSelector).Each(func(_ int, row *goquery.Selection) {
		if !row.HasClass(songRowClass) {
			return
		}
		href, ok := row.Find(songLinkSelector).Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			logger.Warn(fmt.Sprintf("ListSongs: skipping bad link %q: %v", href, err))
			return
		}

		id, _ := row.Attr("data-id")
		name, _ := row.Attr("data-name")
		songs = append(songs, SongRef{
			ID:    id,
			Title: name,
			URL:   p.baseURL.ResolveReference(ref).String(),
		})
	})

	logger.Debug(fmt.Sprintf("ListSongs: found %d songs on %s", len(songs), artistURL))
	return songs, nil
}

// ExtractLyrics extracts the lyrics text of one song page.
func (p *Parser) ExtractLyrics(ctx context.Context, songURL string) (*LyricsResult, error) {
	doc, err := p.client.Document(ctx, songURL)
	if err != nil {
		return &LyricsResult{URL: songURL, Success: false, Error: err.Error()}, err
	}

	selection := doc.Find(lyricSelector).First()
	if selection.Length() == 0 {
		logger.Error(fmt.Sprintf("ExtractLyrics: lyrics element not found for URL %s", songURL))
		return &LyricsResult{
			URL:     songURL,
			Success: false,
			Error:   "Could not find lyrics element",
		}, fmt.Errorf("target element not found")
	}

	selection.Find("script").Remove()

	return &LyricsResult{
		URL:       songURL,
		Text:      textWithSeparator(selection, "\n"),
		FetchedAt: time.Now(),
		Success:   true,
	}, nil
}

// ScrapeArtist downloads the lyrics of every song listed on artistURL.
// Songs whose lyrics cannot be fetched are logged and skipped.
func (p *Parser) ScrapeArtist(ctx context.Context, artistURL string) ([]corpus.Song, error) {
	refs, err := p.ListSongs(ctx, artistURL)
	if err != nil {
		return nil, err
	}

	var songs []corpus.Song
	for _, ref := range refs {
		logger.Info(fmt.Sprintf("Processing: %s", ref.Title))
		if err := wait(ctx, p.Delay); err != nil {
			return songs, err
		}

		result, err := p.ExtractLyrics(ctx, ref.URL)
		if err != nil {
			if ctx.Err() != nil {
				return songs, ctx.Err()
			}
			logger.Warn(fmt.Sprintf("No lyrics found for: %s (%v)", ref.Title, err))
			continue
		}

		songs = append(songs, corpus.Song{
			ID:     ref.ID,
			Title:  ref.Title,
			URL:    ref.URL,
			Lyrics: corpus.SplitLines(result.Text),
		})
		logger.Success(fmt.Sprintf("Successfully got lyrics for: %s", ref.Title))
	}

	return songs, nil
}

// textWithSeparator joins every text node under s with sep, so <br> and <p>
// boundaries become line breaks.
func textWithSeparator(s *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.TrimSpace(strings.Join(parts, sep))
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
