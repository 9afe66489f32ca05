package chat

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// AskMarker opens the suggestion footer every reply should end with.
	AskMarker = "[Ask about:"

	MaxSentences = 2
	MaxWords     = 60
)

// SuggestionPool is what synthesized footers draw from.
var SuggestionPool = []string{
	"specific tech stack used",
	"project details or achievements",
	"other work experience",
	"skills or technologies",
}

// A terminator only ends a sentence when whitespace or the end of the text
// follows it, so "4.0" and "Prana.ai" stay whole.
var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

var (
	// closingFooter is a footer that ends the reply.
	closingFooter = regexp.MustCompile(`\[Ask about:[^\]]*\]\s*$`)
	// anyFooter also matches a footer left mid-reply or never closed.
	anyFooter = regexp.MustCompile(`\[Ask about:[^\]]*\]?`)
)

// Shaper enforces the reply shape: at most MaxSentences sentences, at most
// MaxWords words, ending with a suggestion footer. Safe for concurrent use.
type Shaper struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShaper seeds the footer randomness. A zero seed uses the clock.
func NewShaper(seed int64) *Shaper {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Shaper{rng: rand.New(rand.NewSource(seed))}
}

// Shape returns answer unchanged when it already fits the shape: a footer
// closing the reply, preceded by at most MaxSentences sentences and MaxWords
// words. Otherwise it keeps the first MaxSentences sentences verbatim, drops
// any stray footer text, and appends a fresh footer with two distinct
// suggestions.
func (s *Shaper) Shape(answer string) string {
	answer = strings.TrimSpace(answer)
	if loc := closingFooter.FindStringIndex(answer); loc != nil {
		body := strings.TrimSpace(answer[:loc[0]])
		if !strings.Contains(body, AskMarker) &&
			len(splitSentences(body)) <= MaxSentences &&
			len(strings.Fields(body)) <= MaxWords {
			return answer
		}
	}

	body := strings.Join(strings.Fields(anyFooter.ReplaceAllString(answer, " ")), " ")
	sentences := splitSentences(body)
	short := strings.Join(firstN(sentences, MaxSentences), " ")
	if short != "" && !strings.ContainsAny(short[len(short)-1:], ".!?") {
		short += "."
	}
	a, b := s.suggestions()
	footer := fmt.Sprintf("%s %s or %s?]", AskMarker, a, b)
	if short == "" {
		return footer
	}
	return short + " " + footer
}

func (s *Shaper) suggestions() (string, string) {
	s.mu.Lock()
	perm := s.rng.Perm(len(SuggestionPool))
	s.mu.Unlock()
	return SuggestionPool[perm[0]], SuggestionPool[perm[1]]
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
