package features

import (
	"sort"

	"SigForge/internal/domain/models"
	"SigForge/internal/domain/repository"
)

// SentimentCell is the aggregate of one time bucket: the mean score per
// source, with zero-filled cells for sources silent in that bucket, plus the
// cross-source mean taken over the full source set. Zero cells count toward
// the mean, so one loud source is diluted by the quiet ones.
type SentimentCell struct {
	Scores map[string]float64
	Mean   float64
}

// AggregateSentiment buckets the events mentioning symbol by granularity and
// averages scores per (bucket, source). Cells are keyed by bucket start in
// UnixNano so the join against bar timestamps is an exact instant match. The
// second result is the sorted set of sources observed anywhere in the table;
// both results are empty when nothing mentions the symbol.
func AggregateSentiment(events []models.AltEvent, symbol string, g repository.Granularity) (map[int64]SentimentCell, []string) {
	type acc struct {
		sum   float64
		count int
	}
	buckets := make(map[int64]map[string]*acc)
	seen := make(map[string]struct{})
	for i := range events {
		e := &events[i]
		if !e.Mentions(symbol) {
			continue
		}
		key := g.Floor(e.Timestamp).UnixNano()
		bySource := buckets[key]
		if bySource == nil {
			bySource = make(map[string]*acc)
			buckets[key] = bySource
		}
		a := bySource[e.Source]
		if a == nil {
			a = &acc{}
			bySource[e.Source] = a
		}
		a.sum += e.SentimentScore
		a.count++
		seen[e.Source] = struct{}{}
	}

	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	cells := make(map[int64]SentimentCell, len(buckets))
	for key, bySource := range buckets {
		scores := make(map[string]float64, len(sources))
		total := 0.0
		for _, src := range sources {
			v := 0.0
			if a := bySource[src]; a != nil {
				v = a.sum / float64(a.count)
			}
			scores[src] = v
			total += v
		}
		mean := 0.0
		if len(sources) > 0 {
			mean = total / float64(len(sources))
		}
		cells[key] = SentimentCell{Scores: scores, Mean: mean}
	}
	return cells, sources
}
