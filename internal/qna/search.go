package qna

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hasnainrazaa03/jarvis/internal/content"
)

const (
	// AutoSuggestThreshold is the score above which the top result may be
	// offered to the visitor without them picking it.
	AutoSuggestThreshold = 0.75

	DefaultTopN = 5

	answerWeight = 0.6
	noiseFloor   = 0.2
	minQueryLen  = 2
)

// Result is a knowledge base entry scored against one query.
type Result struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// AutoSuggest reports whether r is confident enough to offer unprompted.
func (r Result) AutoSuggest() bool {
	return r.Score >= AutoSuggestThreshold
}

// Index searches a fixed knowledge base. It holds no mutable state and is
// safe for concurrent use.
type Index struct {
	entries []content.KnowledgeEntry
}

func NewIndex(entries []content.KnowledgeEntry) *Index {
	return &Index{entries: entries}
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Search returns up to topN entries matching query, best first. Entries tie
// in knowledge base order. A topN of zero or less means DefaultTopN.
func (idx *Index) Search(query string, topN int) []Result {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len([]rune(strings.TrimSpace(query))) < minQueryLen {
		return []Result{}
	}

	results := make([]Result, 0, len(idx.entries))
	for _, e := range idx.entries {
		score := max(Score(query, e.Question), Score(query, e.Answer)*answerWeight)
		if score <= noiseFloor {
			continue
		}
		results = append(results, Result{Question: e.Question, Answer: e.Answer, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

// Sequencer tags search requests so a caller can drop responses that were
// superseded by a newer request.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new sequence number, greater than every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Observe records a sequence number issued elsewhere (for example by a
// browser client) and reports whether it is still the newest seen.
func (s *Sequencer) Observe(seq uint64) bool {
	for {
		cur := s.latest.Load()
		if seq < cur {
			return false
		}
		if seq == cur || s.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

// IsLatest reports whether seq is the most recent number issued or observed.
func (s *Sequencer) IsLatest(seq uint64) bool {
	return s.latest.Load() == seq
}
