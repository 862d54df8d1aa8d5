package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGeneratorNotConfigured(t *testing.T) {
	// 没有API key时不报错，统一返回固定错误JSON
	generator, err := NewGeminiGenerator(context.Background(), "", "gemini-1.5-flash")
	require.NoError(t, err)
	assert.False(t, generator.Ready())

	response, err := generator.GenerateSuggestion(context.Background(), "ctx", `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, CannedErrorResponse, response)

	assert.NoError(t, generator.Close())
}

func TestBuildCleaningPrompt(t *testing.T) {
	prompt := buildCleaningPrompt("prior row A\n---\nprior row B", `{"age": ""}`)

	assert.Contains(t, prompt, "data cleaning expert")
	assert.Contains(t, prompt, "prior row A")
	assert.Contains(t, prompt, `{"age": ""}`)
	assert.Contains(t, prompt, `"confidence"`)
	assert.Contains(t, prompt, `"status" set to "clean"`)

	// 上下文出现在待清洗行之前
	assert.Less(t, strings.Index(prompt, "prior row A"), strings.Index(prompt, `{"age": ""}`))
}

func TestNoopEmbedder(t *testing.T) {
	embedder := &NoopEmbedder{}
	assert.False(t, embedder.Ready())
	assert.Equal(t, 0, embedder.Dimensions())

	_, err := embedder.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestNewOpenAIEmbedderWithoutKey(t *testing.T) {
	embedder := NewOpenAIEmbedder("", "text-embedding-3-small")
	assert.False(t, embedder.Ready())
}

func TestNewOpenAIEmbedderDimensions(t *testing.T) {
	cases := map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"unknown-model":          1536,
	}
	for model, want := range cases {
		embedder := NewOpenAIEmbedder("sk-test", model)
		assert.True(t, embedder.Ready())
		assert.Equal(t, want, embedder.Dimensions(), "model %s", model)
	}
}
