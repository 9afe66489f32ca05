// Package content holds the static portfolio data the chat service answers from:
// the owner's profile and the canned question/answer knowledge base.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfile []byte

//go:embed knowledge.yaml
var defaultKnowledge []byte

const (
	profileFile   = "profile.yaml"
	knowledgeFile = "knowledge.yaml"

	// MinKnowledgeEntries is the smallest knowledge base the service will start with.
	MinKnowledgeEntries = 20
)

// KnowledgeEntry is a canonical question and its first-person answer.
type KnowledgeEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type Socials struct {
	GitHub    string `yaml:"github"`
	LinkedIn  string `yaml:"linkedin"`
	Instagram string `yaml:"instagram"`
}

type Education struct {
	Degree string `yaml:"degree"`
	School string `yaml:"school"`
	Period string `yaml:"period"`
	GPA    string `yaml:"gpa"`
}

type Project struct {
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Tech        []string `yaml:"tech"`
}

type Skill struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
	Pct   int    `yaml:"pct"`
}

type SkillGroup struct {
	Category string  `yaml:"category"`
	Items    []Skill `yaml:"items"`
}

type Experience struct {
	Role       string   `yaml:"role"`
	Company    string   `yaml:"company"`
	Period     string   `yaml:"period"`
	Location   string   `yaml:"location"`
	Highlights []string `yaml:"highlights"`
}

// Profile is the owner's biography and résumé data.
type Profile struct {
	Name       string       `yaml:"name"`
	Role       string       `yaml:"role"`
	Location   string       `yaml:"location"`
	Email      string       `yaml:"email"`
	Bio        string       `yaml:"bio"`
	Socials    Socials      `yaml:"socials"`
	Education  []Education  `yaml:"education"`
	Projects   []Project    `yaml:"projects"`
	Skills     []SkillGroup `yaml:"skills"`
	Experience []Experience `yaml:"experience"`
}

// Content is everything loaded at startup. It is never mutated afterwards.
type Content struct {
	Profile   Profile
	Knowledge []KnowledgeEntry
}

// Load reads profile.yaml and knowledge.yaml from dir, falling back to the
// embedded copies for any file that is absent. An empty dir uses the embedded
// content only.
func Load(dir string) (*Content, error) {
	profileData, err := readOrDefault(dir, profileFile, defaultProfile)
	if err != nil {
		return nil, err
	}
	knowledgeData, err := readOrDefault(dir, knowledgeFile, defaultKnowledge)
	if err != nil {
		return nil, err
	}

	var c Content
	if err := yaml.Unmarshal(profileData, &c.Profile); err != nil {
		return nil, fmt.Errorf("parse %s: %w", profileFile, err)
	}
	if err := yaml.Unmarshal(knowledgeData, &c.Knowledge); err != nil {
		return nil, fmt.Errorf("parse %s: %w", knowledgeFile, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the embedded content. It panics if the embedded files are
// invalid, which can only happen through a bad edit caught by the tests.
func Default() *Content {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded content: %v", err))
	}
	return c
}

func readOrDefault(dir, name string, fallback []byte) ([]byte, error) {
	if dir == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Answers must speak as the owner, never about them.
var thirdPersonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bJarvis\b`),
	regexp.MustCompile(`\bHasnain's\b`),
	regexp.MustCompile(`(?i)\bHasnain (has|is)\b`),
	regexp.MustCompile(`(?i)\bhe built\b`),
	regexp.MustCompile(`(?i)\bhis (projects?|experience)\b`),
}

// Validate checks the knowledge base invariants.
func (c *Content) Validate() error {
	if c.Profile.Name == "" {
		return errors.New("profile name is required")
	}
	if len(c.Knowledge) < MinKnowledgeEntries {
		return fmt.Errorf("knowledge base has %d entries, need at least %d", len(c.Knowledge), MinKnowledgeEntries)
	}
	for i, e := range c.Knowledge {
		if e.Question == "" {
			return fmt.Errorf("knowledge entry %d: empty question", i)
		}
		if !validAnswerStart(e.Answer) {
			return fmt.Errorf("knowledge entry %d (%q): answer must start with an uppercase letter or emoji", i, e.Question)
		}
		for _, p := range thirdPersonPatterns {
			if p.MatchString(e.Answer) {
				return fmt.Errorf("knowledge entry %d (%q): answer is not first person (%s)", i, e.Question, p)
			}
		}
	}
	return nil
}

func validAnswerStart(answer string) bool {
	r, size := utf8.DecodeRuneInString(answer)
	if size == 0 || r == utf8.RuneError {
		return false
	}
	if unicode.IsUpper(r) {
		return true
	}
	return isEmoji(r)
}

func isEmoji(r rune) bool {
	return (r >= 0x1F000 && r <= 0x1FFFF) || (r >= 0x2600 && r <= 0x27BF)
}
