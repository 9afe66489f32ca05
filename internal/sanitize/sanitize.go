// Package sanitize normalizes chat input and screens it for prompt-injection
// phrasing before it is used in a prompt. The pattern list is a best-effort
// heuristic, not a guarantee.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest cleaned input. The limit counts runes, not bytes,
// so a cleaned string of multi-byte characters may exceed MaxLength bytes.
const MaxLength = 500

// Reason explains why an input was rejected.
type Reason string

const (
	InvalidInput        Reason = "invalid_input"
	SuspiciousPattern   Reason = "suspicious_pattern"
	ObfuscationDetected Reason = "obfuscation_detected"
)

// Result is the outcome of Sanitize. Cleaned is populated even when Safe is
// false so callers can log it; it must not be used as a prompt in that case.
type Result struct {
	Safe    bool   `json:"safe"`
	Cleaned string `json:"cleaned"`
	Reason  Reason `json:"reason,omitempty"`
}

// Usable reports whether the cleaned text may be sent onward. Whitespace-only
// input cleans to "" and is unusable even though no pattern flagged it.
func (r Result) Usable() bool {
	return r.Safe && r.Cleaned != ""
}

func isInvisible(r rune) bool {
	switch {
	case r >= '\u200b' && r <= '\u200f':
		return true
	case r >= '\u2028' && r <= '\u202f':
		return true
	}
	return r == '\ufeff' || r == '\u00ad'
}

// Checked in order; the first match wins.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s*(all\s*)?instructions`),
	regexp.MustCompile(`(?i)forget\s*(all\s*)?(system|previous)`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)admin\s*mode`),
	regexp.MustCompile(`(?i)override\s*(system|prompt)`),
	regexp.MustCompile(`(?i)act\s+as\s+if`),
	regexp.MustCompile(`(?i)pretend\s+you\s+are`),
	regexp.MustCompile(`(?i)system\s*prompt`),
	regexp.MustCompile(`(?i)instructions\s*say`),
	regexp.MustCompile(`(?i)disregard\s*(all|previous)`),
	regexp.MustCompile(`(?i)new\s+instructions`),
	regexp.MustCompile(`(?i)reveal\s*(your|the)\s*(prompt|instructions)`),
	regexp.MustCompile(`(?i)ignore\s+(your|the|my|previous|prior)\s+(instructions|rules|prompt)`),
}

var longToken = regexp.MustCompile(`\S{100,}`)

// Sanitize cleans raw and decides whether it is safe to use.
func Sanitize(raw string) Result {
	if raw == "" {
		return Result{Safe: false, Cleaned: "", Reason: InvalidInput}
	}

	cleaned := norm.NFKC.String(raw)
	cleaned = strings.Map(func(r rune) rune {
		if isInvisible(r) {
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = truncate(cleaned, MaxLength)

	for _, p := range suspiciousPatterns {
		if p.MatchString(cleaned) {
			return Result{Safe: false, Cleaned: cleaned, Reason: SuspiciousPattern}
		}
	}
	if longToken.MatchString(cleaned) {
		return Result{Safe: false, Cleaned: cleaned, Reason: ObfuscationDetected}
	}
	return Result{Safe: true, Cleaned: cleaned}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
