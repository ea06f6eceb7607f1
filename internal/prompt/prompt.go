// Package prompt renders the LLM prompts used by chat and intent detection.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

const qaTemplate = `You are a helpful AI assistant. Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}

Question: {{.question}}
Helpful Answer:`

const historyTemplate = `Previous conversation:
{{range .history}}User: {{.User}}
Assistant: {{.Assistant}}
{{end}}
`

const intentTemplate = `Analyze the following user query and determine its primary intent.
Possible intents are: 'information_retrieval', 'general_chat'.
Return only the intent name.

Query: "{{.query}}"
Intent:`

var (
	qaPrompt      = prompts.NewPromptTemplate(qaTemplate, []string{"context", "question"})
	historyPrompt = prompts.NewPromptTemplate(historyTemplate, []string{"history"})
	intentPrompt  = prompts.NewPromptTemplate(intentTemplate, []string{"query"})
)

// contextSeparator joins retrieved chunks, matching a "stuff" document chain.
const contextSeparator = "\n\n"

// QA renders the retrieval-augmented answer prompt. Prior turns, if any, are prepended.
func QA(chunks []domain.ScoredChunk, question string, history []domain.Turn) (string, error) {
	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Content
	}

	body, err := qaPrompt.Format(map[string]any{
		"context":  strings.Join(parts, contextSeparator),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("render qa prompt: %w", err)
	}
	if len(history) == 0 {
		return body, nil
	}

	prefix, err := historyPrompt.Format(map[string]any{"history": history})
	if err != nil {
		return "", fmt.Errorf("render history: %w", err)
	}
	return prefix + body, nil
}

// Intent renders the intent classification prompt.
func Intent(query string) (string, error) {
	out, err := intentPrompt.Format(map[string]any{"query": query})
	if err != nil {
		return "", fmt.Errorf("render intent prompt: %w", err)
	}
	return out, nil
}
