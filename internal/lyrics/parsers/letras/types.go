package letras

import "time"

const (
	BaseURL = "https://www.letras.com"

	songRowSelector  = "li.songList-table-row"
	songRowClass     = "--song"
	songLinkSelector = "a.songList-table-songName"
	lyricSelector    = "div.lyric"
)

// SongRef is one row of an artist's song list.
type SongRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// LyricsResult represents the extracted lyrics result
type LyricsResult struct {
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}
