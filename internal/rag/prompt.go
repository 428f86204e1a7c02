package rag

import (
	"fmt"
	"strings"

	"github.com/aldeialab/sage/internal/knowledge"
)

// noContextFallback is injected in place of grounding when retrieval found
// nothing, so the model knows to answer from general knowledge and say so.
const noContextFallback = `Nenhum conteúdo relevante foi encontrado na base de conhecimento para esta pergunta.
Responda com base em conhecimento geral sobre AH/SD e deixe explícito que a resposta não está fundamentada na base.`

// buildContext renders retrieval results as a numbered grounding block,
// preserving the similarity-descending order the store returned.
func buildContext(results []knowledge.Result) string {
	if len(results) == 0 {
		return noContextFallback
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s/%s):\n%s\n\n",
			i+1, r.Item.Title, r.Item.Source, r.Item.Category, r.Item.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildUserPrompt assembles the grounding block and the question into the
// final user message, with the answering directives the model must follow.
func buildUserPrompt(contextBlock, question string) string {
	var b strings.Builder
	b.WriteString("Conteúdo da base de conhecimento:\n\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nPergunta:\n")
	b.WriteString(question)
	b.WriteString(`

Instruções:
- Responda de forma clara e objetiva, em português.
- Fundamente cada afirmação no conteúdo fornecido acima.
- Se o conteúdo for insuficiente para responder, diga isso explicitamente.
- Dê orientações acionáveis quando a pergunta pedir.
- Cite as fontes usadas pelo número entre colchetes, por exemplo [1].`)
	return b.String()
}
