// Package qna answers visitor questions locally from the knowledge base,
// without calling any language model.
package qna

import "strings"

// Score rates how well query matches target, from 0 (no overlap) to 1.
// A target that contains the whole query scores 1. Otherwise the score is the
// fraction of query tokens that contain, or are contained in, some target token.
func Score(query, target string) float64 {
	if query == "" || target == "" {
		return 0
	}
	q := strings.TrimSpace(strings.ToLower(query))
	t := strings.ToLower(target)

	if q != "" && strings.Contains(t, q) {
		return 1
	}

	qTokens := strings.Fields(q)
	if len(qTokens) == 0 {
		return 0
	}
	tTokens := strings.Fields(t)

	matched := 0
	for _, qt := range qTokens {
		for _, tt := range tTokens {
			if strings.Contains(tt, qt) || strings.Contains(qt, tt) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(qTokens))
}
