package engine

import (
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/vectordb"
)

const noHistoryMarker = "No previous chat history."

// refusalSentence is the exact wording the answer prompt instructs the model
// to use when the retrieved context does not cover the question. The
// grounding check below scans for its key fragments, not the full sentence,
// so paraphrased refusals are caught too.
const refusalSentence = "I cannot find this information in the provided documents."

var refusalPhrases = []string{
	"cannot find",
	"no information",
	"not mentioned",
	"does not contain",
}

const answerPromptTemplate = `You are a corporate knowledge assistant. Answer the user's question using ONLY the context below.

Rules:
- If the context contains the answer, respond concisely and cite facts from the context.
- For "what is X" questions, descriptive text about X in the context counts as the answer.
- End your answer with the source label of the context you used.
- If the context is unrelated to the question, respond with exactly: "%s"
- Never invent facts that are not in the context.

Chat history:
%s

Context:
%s

Question: %s

Answer:`

const expansionPromptTemplate = `Rewrite the following search query as up to 2 alternative phrasings that could retrieve relevant documents. Return one phrasing per line with no numbering or extra text.

Query: %s`

// containsRefusal reports whether an answer reads as a refusal to answer
// from the provided context. Matching is case-insensitive.
func containsRefusal(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// formatHistory renders prior turns oldest first for prompt inclusion.
func formatHistory(msgs []history.Message) string {
	if len(msgs) == 0 {
		return noHistoryMarker
	}
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case history.RoleUser:
			b.WriteString("User: ")
		case history.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatContext renders retrieved chunks as a delimited block with source
// attribution so the model can ground its answer.
func formatContext(results []vectordb.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", r.Document.Metadata.Source, r.Document.Content)
	}
	return b.String()
}

func buildAnswerPrompt(msgs []history.Message, results []vectordb.SearchResult, query string) string {
	return fmt.Sprintf(answerPromptTemplate, refusalSentence, formatHistory(msgs), formatContext(results), query)
}

func buildExpansionPrompt(query string) string {
	return fmt.Sprintf(expansionPromptTemplate, query)
}
