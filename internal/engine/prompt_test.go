package engine

import (
	"strings"
	"testing"

	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/vectordb"
)

func TestFormatHistoryEmpty(t *testing.T) {
	if got := formatHistory(nil); got != noHistoryMarker {
		t.Errorf("formatHistory(nil) = %q, want %q", got, noHistoryMarker)
	}
}

func TestFormatHistoryOrder(t *testing.T) {
	msgs := []history.Message{
		{Role: history.RoleUser, Content: "first question"},
		{Role: history.RoleAssistant, Content: "first answer"},
		{Role: history.RoleUser, Content: "second question"},
	}
	got := formatHistory(msgs)
	want := "User: first question\nAssistant: first answer\nUser: second question"
	if got != want {
		t.Errorf("formatHistory = %q, want %q", got, want)
	}
}

func TestFormatContext(t *testing.T) {
	results := []vectordb.SearchResult{
		{Document: vectordb.Document{Content: "chunk one", Metadata: vectordb.DocumentMetadata{Source: "a.txt"}}},
		{Document: vectordb.Document{Content: "chunk two", Metadata: vectordb.DocumentMetadata{Source: "b.pdf"}}},
	}
	got := formatContext(results)
	for _, want := range []string{"[Source: a.txt]", "chunk one", "[Source: b.pdf]", "chunk two", "\n---\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatContext missing %q in %q", want, got)
		}
	}
}

func TestContainsRefusal(t *testing.T) {
	cases := []struct {
		answer string
		want   bool
	}{
		{refusalSentence, true},
		{"I CANNOT FIND that anywhere.", true},
		{"Sorry, there is no information about this topic.", true},
		{"The salary policy is not mentioned in the documents.", true},
		{"The handbook does not contain a remote work section.", true},
		{"Employees receive 25 vacation days per year.", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := containsRefusal(tc.answer); got != tc.want {
			t.Errorf("containsRefusal(%q) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestBuildAnswerPromptIncludesParts(t *testing.T) {
	msgs := []history.Message{{Role: history.RoleUser, Content: "earlier question"}}
	results := []vectordb.SearchResult{
		{Document: vectordb.Document{Content: "policy text", Metadata: vectordb.DocumentMetadata{Source: "policy.txt"}}},
	}
	got := buildAnswerPrompt(msgs, results, "what is the policy?")
	for _, want := range []string{refusalSentence, "earlier question", "policy text", "[Source: policy.txt]", "what is the policy?"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
