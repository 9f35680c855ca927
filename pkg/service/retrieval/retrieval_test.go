package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/retrieval"
)

type mockIndex struct {
	chunks []string
	err    error
	gotK   int
}

func (m *mockIndex) Query(ctx context.Context, sessionID model.SessionID, text string, k int) ([]string, error) {
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.chunks) > k {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	sid := model.NewSessionID()

	t.Run("default k is used for non-positive k", func(t *testing.T) {
		idx := &mockIndex{chunks: []string{"a", "b", "c", "d", "e", "f"}}
		result, err := retrieval.New(idx).Retrieve(ctx, sid, "question", 0)
		gt.NoError(t, err).Required()
		gt.Number(t, idx.gotK).Equal(retrieval.DefaultTopK)
		gt.Array(t, result.Chunks).Length(5)
		gt.Bool(t, result.Empty).False()
	})

	t.Run("configured top k", func(t *testing.T) {
		idx := &mockIndex{chunks: []string{"a", "b", "c"}}
		result, err := retrieval.New(idx, retrieval.WithTopK(2)).Retrieve(ctx, sid, "question", -1)
		gt.NoError(t, err).Required()
		gt.Number(t, idx.gotK).Equal(2)
		gt.Array(t, result.Chunks).Length(2)
	})

	t.Run("empty result is flagged", func(t *testing.T) {
		result, err := retrieval.New(&mockIndex{}).Retrieve(ctx, sid, "question", 3)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.Empty).True()
		gt.Array(t, result.Chunks).Length(0)
	})

	t.Run("index errors are returned", func(t *testing.T) {
		idx := &mockIndex{err: model.AsProviderFailure(errors.New("timeout"))}
		_, err := retrieval.New(idx).Retrieve(ctx, sid, "question", 3)
		gt.Bool(t, errors.Is(err, model.ErrProviderFailure)).True()
	})
}

func TestRetrieveDedupe(t *testing.T) {
	ctx := context.Background()
	idx := &mockIndex{chunks: []string{
		"Paris has long served as the capital of France.",
		"the capital  of France.",
		"Lyon is a city in France.",
	}}

	t.Run("off by default", func(t *testing.T) {
		result, err := retrieval.New(idx).Retrieve(ctx, model.NewSessionID(), "q", 3)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Chunks).Length(3)
	})

	t.Run("contained chunks are dropped", func(t *testing.T) {
		result, err := retrieval.New(idx, retrieval.WithDedupe(true)).Retrieve(ctx, model.NewSessionID(), "q", 3)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Chunks).Length(2).Required()
		gt.Value(t, result.Chunks[0]).Equal("Paris has long served as the capital of France.")
		gt.Value(t, result.Chunks[1]).Equal("Lyon is a city in France.")
	})
}
