// Package topics tags free text with subject-matter topics and named entities
// using fixed keyword tables. Matching is case-insensitive substring containment.
package topics

import "strings"

// Topic is one of a closed set of subject tags.
type Topic string

const (
	Projects   Topic = "projects"
	Skills     Topic = "skills"
	Experience Topic = "experience"
	Education  Topic = "education"
	Contact    Topic = "contact"
	AIML       Topic = "ai_ml"
	Aerospace  Topic = "aerospace"
)

// Rule maps a topic to the keywords that trigger it.
type Rule struct {
	Topic    Topic
	Keywords []string
}

// Lexicon is a named list of entity spellings.
type Lexicon struct {
	Name    string
	Entries []string
}

// DefaultRules are checked in order; a text may match any number of them.
var DefaultRules = []Rule{
	{Projects, []string{"project", "vimaan", "tumor", "brain"}},
	{Skills, []string{"skill", "tech", "language", "proficient"}},
	{Experience, []string{"experience", "work", "deloitte", "drdo", "prana"}},
	{Education, []string{"education", "usc", "rvce", "university", "degree"}},
	{Contact, []string{"contact", "email", "reach", "linkedin", "github"}},
	{AIML, []string{"ai", "machine learning", "ml", "deep learning"}},
	{Aerospace, []string{"aerospace", "cfd", "aerodynamic", "flight"}},
}

var DefaultLexicons = []Lexicon{
	{"projects", []string{"vimaan", "brain tumor", "segmentation", "recipe vault", "expense tracker", "cfd", "aerodynamic"}},
	{"skills", []string{"python", "pytorch", "tensorflow", "react", "nodejs", "matlab", "sql", "java", "cpp", "javascript"}},
	{"organizations", []string{"deloitte", "drdo", "prana", "usc", "rvce", "liba space"}},
}

// Extractor applies a set of topic rules and entity lexicons. The zero value
// matches nothing; use Default for the portfolio tables.
type Extractor struct {
	Rules    []Rule
	Lexicons []Lexicon
}

// Default is the extractor over DefaultRules and DefaultLexicons.
var Default = Extractor{Rules: DefaultRules, Lexicons: DefaultLexicons}

// Topics returns every topic whose keywords appear in text, in rule order.
func (e Extractor) Topics(text string) []Topic {
	lower := strings.ToLower(text)
	out := []Topic{}
	for _, r := range e.Rules {
		if containsAny(lower, r.Keywords) && !hasTopic(out, r.Topic) {
			out = append(out, r.Topic)
		}
	}
	return out
}

// Entities returns every lexicon entry that appears in text, in lexicon order
// with duplicates removed.
func (e Extractor) Entities(text string) []string {
	lower := strings.ToLower(text)
	out := []string{}
	seen := make(map[string]bool)
	for _, lex := range e.Lexicons {
		for _, entry := range lex.Entries {
			if seen[entry] || !strings.Contains(lower, entry) {
				continue
			}
			seen[entry] = true
			out = append(out, entry)
		}
	}
	return out
}

// ExtractTopics tags text using the default tables.
func ExtractTopics(text string) []Topic {
	return Default.Topics(text)
}

// ExtractEntities finds entities in text using the default lexicons.
func ExtractEntities(text string) []string {
	return Default.Entities(text)
}

// FromTexts returns the union of topics across texts, first occurrence first.
func (e Extractor) FromTexts(texts []string) []Topic {
	out := []Topic{}
	for _, t := range texts {
		for _, topic := range e.Topics(t) {
			if !hasTopic(out, topic) {
				out = append(out, topic)
			}
		}
	}
	return out
}

// Strings converts topics to plain strings for storage.
func Strings(ts []Topic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasTopic(ts []Topic, t Topic) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
