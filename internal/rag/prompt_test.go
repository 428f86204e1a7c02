package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldeialab/sage/internal/knowledge"
)

func namedResult(title string, source knowledge.Source, category knowledge.Category, sim float64) knowledge.Result {
	return knowledge.Result{
		Item: knowledge.Item{
			Title:    title,
			Content:  "Conteúdo de " + title + ".",
			Source:   source,
			Category: category,
		},
		Similarity: sim,
	}
}

func TestBuildContextPreservesOrder(t *testing.T) {
	block := buildContext([]knowledge.Result{
		namedResult("Primeiro", knowledge.SourceAldeia, knowledge.CategoryIdentificacao, 0.95),
		namedResult("Segundo", knowledge.SourceVirgolim, knowledge.CategoryEducacao, 0.80),
	})

	first := strings.Index(block, "[1] Primeiro")
	second := strings.Index(block, "[2] Segundo")
	assert.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first, "most similar item must come first")
	assert.Contains(t, block, "(aldeia/identificacao)")
	assert.Contains(t, block, "(virgolim/educacao)")
	assert.Contains(t, block, "Conteúdo de Primeiro.")
}

func TestBuildContextOmitsSimilarityScores(t *testing.T) {
	block := buildContext([]knowledge.Result{
		namedResult("Item", knowledge.SourceAldeia, knowledge.CategoryCasos, 0.8675309),
	})
	assert.NotContains(t, block, "0.86", "raw similarity must not leak into the prompt")
}

func TestBuildContextEmptyFallsBack(t *testing.T) {
	block := buildContext(nil)
	assert.Equal(t, noContextFallback, block)
	assert.Contains(t, block, "Nenhum conteúdo relevante")
}

func TestBuildUserPromptStructure(t *testing.T) {
	prompt := buildUserPrompt("BLOCO-DE-CONTEXTO", "Qual a pergunta?")

	ctxIdx := strings.Index(prompt, "BLOCO-DE-CONTEXTO")
	qIdx := strings.Index(prompt, "Qual a pergunta?")
	instrIdx := strings.Index(prompt, "Instruções:")

	assert.GreaterOrEqual(t, ctxIdx, 0)
	assert.Greater(t, qIdx, ctxIdx, "context precedes the question")
	assert.Greater(t, instrIdx, qIdx, "directives close the prompt")
	assert.Contains(t, prompt, "Fundamente cada afirmação")
	assert.Contains(t, prompt, "diga isso explicitamente")
	assert.Contains(t, prompt, "Cite as fontes")
}
