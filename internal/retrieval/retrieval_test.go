package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldeialab/sage/internal/embedding"
	"github.com/aldeialab/sage/internal/knowledge"
	"github.com/aldeialab/sage/internal/log"
	"github.com/aldeialab/sage/internal/testutil"
)

// fakeSearcher implements Searcher.
type fakeSearcher struct {
	results    []knowledge.Result
	err        error
	lastVector []float32
	lastParams knowledge.SearchParams
}

func (f *fakeSearcher) Search(_ context.Context, queryEmbedding []float32, p knowledge.SearchParams) ([]knowledge.Result, error) {
	f.lastVector = queryEmbedding
	f.lastParams = p
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestRetrievePassesVectorAndParams(t *testing.T) {
	client := testutil.NewEmbedClient()
	client.Pin("como identificar superdotação?", []float32{0.6, 0.8})
	searcher := &fakeSearcher{results: []knowledge.Result{
		{Item: knowledge.Item{Title: "Sinais"}, Similarity: 0.92},
	}}
	svc := NewService(embedding.NewService(client, log.NewNop()), searcher, log.NewNop())

	results, usage, err := svc.Retrieve(context.Background(), Query{
		Text:      "como identificar superdotação?",
		Threshold: 0.7,
		Count:     5,
		Source:    knowledge.SourceAldeia,
		Category:  knowledge.CategoryIdentificacao,
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Sinais", results[0].Item.Title)
	assert.Zero(t, usage.Tokens)

	assert.Equal(t, []float32{0.6, 0.8}, searcher.lastVector)
	assert.Equal(t, knowledge.SearchParams{
		Threshold: 0.7,
		Count:     5,
		Source:    knowledge.SourceAldeia,
		Category:  knowledge.CategoryIdentificacao,
	}, searcher.lastParams)
}

func TestRetrieveEmptyStoreReturnsNoResults(t *testing.T) {
	svc := NewService(
		embedding.NewService(testutil.NewEmbedClient(), log.NewNop()),
		&fakeSearcher{},
		log.NewNop(),
	)

	results, _, err := svc.Retrieve(context.Background(), Query{Text: "qualquer", Threshold: 0.7, Count: 10})

	require.NoError(t, err, "zero results is not an error")
	assert.Empty(t, results)
}

func TestRetrievePropagatesEmbeddingErrorKind(t *testing.T) {
	client := testutil.NewEmbedClient()
	client.FailNext(errors.New("401 unauthorized"))
	svc := NewService(embedding.NewService(client, log.NewNop()), &fakeSearcher{}, log.NewNop())

	_, _, err := svc.Retrieve(context.Background(), Query{Text: "pergunta", Threshold: 0.7, Count: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrEmbedding, "error kind must survive propagation")
}

func TestRetrievePropagatesSearchErrorKind(t *testing.T) {
	searcher := &fakeSearcher{err: knowledge.ErrSearch}
	svc := NewService(embedding.NewService(testutil.NewEmbedClient(), log.NewNop()), searcher, log.NewNop())

	_, _, err := svc.Retrieve(context.Background(), Query{Text: "pergunta", Threshold: 0.7, Count: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, knowledge.ErrSearch)
}

func TestRetrieveReportsEmbeddingUsage(t *testing.T) {
	client := testutil.NewEmbedClient()
	client.SetUsage(embedding.Usage{Tokens: 12})
	svc := NewService(embedding.NewService(client, log.NewNop()), &fakeSearcher{}, log.NewNop())

	_, usage, err := svc.Retrieve(context.Background(), Query{Text: "pergunta", Threshold: 0.7, Count: 10})
	require.NoError(t, err)

	assert.Equal(t, 12, usage.Tokens)
}
