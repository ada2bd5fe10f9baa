package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/tmc/langchaingo/prompts"
)

// NoInformationAnswer is the reply whenever the indexed content cannot answer a question.
const NoInformationAnswer = "I don't have the information about that yet."

const answerTemplate = `You are an AI assistant that answers user questions strictly based on the provided context.

The context is generated from uploaded video transcripts and documents and may contain informal language, filler words, or minor transcription errors.

Instructions:
- Use ONLY the information explicitly present in the provided context.
- Answer briefly and correctly so the user can understand it clearly.
- Do not repeat the exact words of the context, rephrase them in your own words.
- Do NOT assume, infer, or add any information that is not clearly stated in the context.
- Use the previous messages of the conversation to keep track of what the user is referring to.
- If the question is a greeting (e.g., hello, hi, hey, bye), respond naturally and briefly.
- If the answer is not available or not clearly stated in the context, respond EXACTLY with:

  "` + NoInformationAnswer + `"

- Avoid hallucinations, speculation, or external knowledge.
- Maintain a clear, professional, and neutral tone.
- Format the final answer in valid HTML.
- Do NOT include <html> or <body> tags. Use only child tags such as <p>, <ul>, <li>, <strong>, etc.

Previous messages:
{{.history}}

Context:
{{.context}}

Question:
{{.question}}
`

func newAnswerPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(answerTemplate, []string{"history", "context", "question"})
}

func renderContext(chunks []commonModels.DocChunk) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s #%d]\n%s", c.Doc.Name, c.ChunkOrder, c.Chunk)
	}
	return sb.String()
}

func renderHistory(turns []jobModel.Turn) string {
	if len(turns) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", t.Question, t.Answer)
	}
	return strings.TrimRight(sb.String(), "\n")
}
