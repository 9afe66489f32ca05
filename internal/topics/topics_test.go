package topics

import (
	"reflect"
	"testing"
)

func TestExtractTopics(t *testing.T) {
	tests := []struct {
		text string
		want []Topic
	}{
		{"Tell me about Project Vimaan", []Topic{Projects}},
		{"What tech did you use at Deloitte?", []Topic{Skills, Experience}},
		{"How do I reach you on LinkedIn?", []Topic{Contact}},
		{"What is your email?", []Topic{Contact, AIML}},
		{"Your brain tumor work with deep learning", []Topic{Projects, Experience, AIML}},
		{"CFD and flight dynamics", []Topic{Aerospace}},
		{"Which university gave you your degree?", []Topic{Education}},
		{"hello there", []Topic{}},
		{"", []Topic{}},
		// "ai" appears inside "explain": substring matching is intentional.
		{"explain", []Topic{AIML}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractTopics(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTopics(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractTopics_Idempotent(t *testing.T) {
	inputs := []string{"Projects and skills at USC", "Vimaan flight sim with ML", "nothing here"}
	for _, in := range inputs {
		first := ExtractTopics(in)
		second := ExtractTopics(in)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("ExtractTopics(%q) not idempotent: %v vs %v", in, first, second)
		}
	}
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Tell me about Vimaan", []string{"vimaan"}},
		{"JavaScript and Python", []string{"python", "java", "javascript"}},
		{"brain tumor segmentation at Prana", []string{"brain tumor", "segmentation", "prana"}},
		{"Vimaan vimaan VIMAAN", []string{"vimaan"}},
		{"CFD at DRDO", []string{"cfd", "drdo"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ExtractEntities(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEntities(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractor_CustomTables(t *testing.T) {
	e := Extractor{
		Rules:    []Rule{{Topic: "food", Keywords: []string{"biryani", "cook"}}},
		Lexicons: []Lexicon{{Name: "dishes", Entries: []string{"biryani", "biryani"}}},
	}
	if got := e.Topics("I cook biryani"); !reflect.DeepEqual(got, []Topic{"food"}) {
		t.Errorf("Topics = %v", got)
	}
	if got := e.Entities("I cook biryani"); !reflect.DeepEqual(got, []string{"biryani"}) {
		t.Errorf("Entities = %v", got)
	}

	var zero Extractor
	if got := zero.Topics("project"); len(got) != 0 {
		t.Errorf("zero extractor matched %v", got)
	}
}

func TestFromTexts(t *testing.T) {
	got := Default.FromTexts([]string{"your projects", "linkedin?", "more projects"})
	want := []Topic{Projects, Contact}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromTexts = %v, want %v", got, want)
	}
}

func TestStrings(t *testing.T) {
	got := Strings([]Topic{Projects, AIML})
	if !reflect.DeepEqual(got, []string{"projects", "ai_ml"}) {
		t.Errorf("Strings = %v", got)
	}
}
