package corpus

import "sort"

type SongCount struct {
	Title string
	Lines int
}

type Stats struct {
	Songs     int
	Lines     int
	Posted    int
	Remaining int
	Average   float64
	Top       []SongCount
	Bottom    []SongCount
}

// ComputeStats summarizes c given how many fingerprints were already posted.
// Top holds up to ten songs with the most lines and Bottom up to five with the
// fewest, both ordered by descending line count.
func ComputeStats(c *Corpus, posted int) Stats {
	counts := make([]SongCount, 0, c.Len())
	for _, song := range c.Songs() {
		counts = append(counts, SongCount{Title: song.Title, Lines: len(song.Lyrics)})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Lines > counts[j].Lines
	})

	stats := Stats{
		Songs:  len(counts),
		Lines:  c.TotalLines(),
		Posted: posted,
	}
	stats.Remaining = max(stats.Lines-posted, 0)
	if stats.Songs > 0 {
		stats.Average = float64(stats.Lines) / float64(stats.Songs)
	}

	stats.Top = counts[:min(10, len(counts))]
	stats.Bottom = counts[max(len(counts)-5, 0):]
	return stats
}
