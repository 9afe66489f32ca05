package chat

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasnainrazaa03/jarvis/internal/content"
)

var footerRE = func() *regexp.Regexp {
	quoted := make([]string, len(SuggestionPool))
	for i, p := range SuggestionPool {
		quoted[i] = regexp.QuoteMeta(p)
	}
	alt := "(" + strings.Join(quoted, "|") + ")"
	return regexp.MustCompile(`\[Ask about: ` + alt + ` or ` + alt + `\?\]$`)
}()

func TestShape_KeepsWellFormedAnswer(t *testing.T) {
	s := NewShaper(1)
	in := "I built Project Vimaan, a voice co-pilot for X-Plane. [Ask about: specific tech stack or project details?]"
	assert.Equal(t, in, s.Shape(in))
	assert.Equal(t, in, s.Shape(in+"  \n"))
}

func TestShape_Truncates(t *testing.T) {
	s := NewShaper(1)
	tests := []struct {
		name     string
		in       string
		wantBody string
	}{
		{
			name:     "no marker",
			in:       "I studied at USC. My GPA is 4.0. I also went to RVCE.",
			wantBody: "I studied at USC. My GPA is 4.0.",
		},
		{
			name:     "too many sentences before marker",
			in:       "One. Two! Three? [Ask about: anything?]",
			wantBody: "One. Two!",
		},
		{
			name:     "footer in the middle of the reply",
			in:       "I built Vimaan. [Ask about: tech stack?] Also I did A. And B. And C. And D.",
			wantBody: "I built Vimaan. Also I did A.",
		},
		{
			name:     "text after a closing footer",
			in:       "I built Vimaan. [Ask about: tech stack?] Thanks",
			wantBody: "I built Vimaan. Thanks.",
		},
		{
			name:     "unclosed footer",
			in:       "I built Vimaan. [Ask about: tech stack",
			wantBody: "I built Vimaan.",
		},
		{
			name:     "unterminated sentence gets a period",
			in:       "I was a founding engineer at Prana.ai",
			wantBody: "I was a founding engineer at Prana.ai.",
		},
		{
			name:     "too many words before marker",
			in:       strings.Repeat("word ", MaxWords+1) + "[Ask about: more?]",
			wantBody: strings.TrimSpace(strings.Repeat("word ", MaxWords+1)) + ".",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Shape(tt.in)
			require.True(t, strings.HasPrefix(got, tt.wantBody+" [Ask about: "), "got %q", got)
			assert.Regexp(t, footerRE, got)
		})
	}
}

func TestShape_EmptyAnswer(t *testing.T) {
	got := NewShaper(1).Shape("   ")
	assert.True(t, strings.HasPrefix(got, AskMarker))
}

func TestShape_FooterDrawsTwoDistinctSuggestions(t *testing.T) {
	s := NewShaper(42)
	pool := map[string]bool{}
	for _, p := range SuggestionPool {
		pool[p] = true
	}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m := footerRE.FindStringSubmatch(s.Shape("No footer here."))
		require.Len(t, m, 3)
		assert.True(t, pool[m[1]], "unexpected suggestion %q", m[1])
		assert.True(t, pool[m[2]], "unexpected suggestion %q", m[2])
		assert.NotEqual(t, m[1], m[2])
		seen[m[1]] = true
	}
	assert.Len(t, seen, len(SuggestionPool))
}

func TestShape_SeedIsDeterministic(t *testing.T) {
	a, b := NewShaper(99), NewShaper(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Shape("Hello there."), b.Shape("Hello there."))
	}
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"I hold a 4.0 GPA.", "Next!"}, splitSentences("I hold a 4.0 GPA. Next!"))
	assert.Equal(t, []string{"Wait...", "what?"}, splitSentences("Wait... what?"))
	assert.Empty(t, splitSentences("  "))
}

func TestLocalResponder(t *testing.T) {
	l := NewLocalResponder(content.Default().Profile)
	tests := []struct {
		input    string
		trigger  string
		contains string
	}{
		{"Hey there", TriggerGreeting, "Hasnain Raza"},
		{"Tell me about your projects", TriggerProject, "Project Vimaan"},
		{"What technologies do you know?", TriggerSkill, "Python"},
		{"Where have you worked?", TriggerExperience, "Deloitte"},
		{"What degree are you pursuing?", TriggerEducation, "University of Southern California"},
		{"How do I reach you?", TriggerContact, "razam@usc.edu"},
		{"What is Vimaan?", "vimaan", "X-Plane"},
		{"Explain the brain tumor model", "brain tumor", "MRI/CT"},
		{"Is Manzil open source?", "recipe vault", "Manzil Recipe Vault"},
		{"Describe the expense tracker", "expense tracker", "multi-currency"},
		{"The cavity CFD study?", "store separation", "weapons-bay"},
		{"Who are you?", TriggerAbout, "Los Angeles"},
		{"Favourite movie?", TriggerDefault, "What would you like to know?"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			reply, trig := l.Respond(tt.input)
			assert.Equal(t, tt.trigger, trig)
			assert.Contains(t, reply, tt.contains)
		})
	}
}

func TestLocalResponder_GreetingNeedsWholeWord(t *testing.T) {
	l := NewLocalResponder(content.Default().Profile)
	_, trig := l.Respond("This is nothing")
	assert.NotEqual(t, TriggerGreeting, trig)
}
