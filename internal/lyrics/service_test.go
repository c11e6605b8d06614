package lyrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/lyrics/parsers/letras"
)

type fakeScraper struct {
	called string
}

func (f *fakeScraper) ScrapeArtist(ctx context.Context, artistURL string) ([]corpus.Song, error) {
	f.called = artistURL
	return []corpus.Song{{Title: "A", Lyrics: corpus.Lyrics{"x"}}}, nil
}

func newTestService(t *testing.T) (*Service, *fakeScraper) {
	t.Helper()
	fake := &fakeScraper{}
	return &Service{scrapers: map[string]ArtistScraper{"letras.com": fake}}, fake
}

func TestNewService_HandlesLetras(t *testing.T) {
	parser, err := letras.NewParser(letras.BaseURL)
	require.NoError(t, err)

	s := NewService(parser)
	assert.Same(t, parser, s.scrapers["letras.com"])
}

func TestScrapeArtist_DispatchesByHost(t *testing.T) {
	s, fake := newTestService(t)

	songs, err := s.ScrapeArtist(context.Background(), "https://www.letras.com/el-mato-un-policia-motorizado/")
	require.NoError(t, err)
	assert.Len(t, songs, 1)
	assert.Equal(t, "https://www.letras.com/el-mato-un-policia-motorizado/", fake.called)
}

func TestScrapeArtist_Unsupported(t *testing.T) {
	s, fake := newTestService(t)

	_, err := s.ScrapeArtist(context.Background(), "https://notletras.com/x/")
	assert.ErrorContains(t, err, "unsupported URL source")
	assert.Empty(t, fake.called)

	_, err = s.ScrapeArtist(context.Background(), "://bad")
	assert.Error(t, err)
}
