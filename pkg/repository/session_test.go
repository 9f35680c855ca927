package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/repository/chromem"
	"github.com/secmon-lab/mnemosyne/pkg/repository/firestore"
	"github.com/secmon-lab/mnemosyne/pkg/repository/memory"
	"github.com/secmon-lab/mnemosyne/pkg/repository/postgres"
)

func newTestSession(name string, updatedAt time.Time) *model.Session {
	return &model.Session{
		ID:           model.NewSessionID(),
		Name:         name,
		DocumentName: "report.pdf",
		FileType:     "pdf",
		FullText:     "The quarterly report covers revenue and churn.",
		Summary:      "A quarterly report.",
		ChunkCount:   1,
		AskHistory: []model.AskRecord{
			{
				RequestID:     "req-1",
				Question:      "What does it cover?",
				Answer:        "Revenue and churn.",
				Justification: "The quarterly report covers revenue and churn.",
				AskedAt:       updatedAt.Add(-time.Minute),
			},
		},
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
}

func runSessionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		now := time.Now().UTC().Truncate(time.Millisecond)
		s := newTestSession("first chat", now)
		gt.NoError(t, repo.Session().Put(ctx, s)).Required()

		got, err := repo.Session().Get(ctx, s.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(s.ID)
		gt.Value(t, got.Name).Equal("first chat")
		gt.Value(t, got.DocumentName).Equal("report.pdf")
		gt.Value(t, got.FullText).Equal(s.FullText)
		gt.Value(t, got.Summary).Equal(s.Summary)
		gt.Value(t, got.ChunkCount).Equal(1)
		gt.Array(t, got.AskHistory).Length(1).Required()
		gt.Value(t, got.AskHistory[0].RequestID).Equal("req-1")
		gt.Value(t, got.AskHistory[0].Answer).Equal("Revenue and churn.")
		gt.Bool(t, got.UpdatedAt.Equal(now)).True()
	})

	t.Run("Put replaces existing session", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		s := newTestSession("before", time.Now().UTC())
		gt.NoError(t, repo.Session().Put(ctx, s)).Required()

		s.Name = "after"
		s.AskHistory = append(s.AskHistory, model.AskRecord{Question: "second"})
		gt.NoError(t, repo.Session().Put(ctx, s)).Required()

		got, err := repo.Session().Get(ctx, s.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("after")
		gt.Array(t, got.AskHistory).Length(2)
	})

	t.Run("Get returns ErrSessionNotFound for missing session", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Session().Get(context.Background(), model.NewSessionID())
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, model.ErrSessionNotFound)).True()
	})

	t.Run("List returns sessions newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		base := time.Now().UTC()
		older := newTestSession("older", base.Add(-time.Hour))
		newer := newTestSession("newer", base)
		gt.NoError(t, repo.Session().Put(ctx, older)).Required()
		gt.NoError(t, repo.Session().Put(ctx, newer)).Required()

		sessions, err := repo.Session().List(ctx)
		gt.NoError(t, err).Required()

		olderPos, newerPos := -1, -1
		for i, s := range sessions {
			switch s.ID {
			case older.ID:
				olderPos = i
			case newer.ID:
				newerPos = i
			}
		}
		gt.Bool(t, olderPos >= 0 && newerPos >= 0).True()
		gt.Bool(t, newerPos < olderPos).True()
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		s := newTestSession("to delete", time.Now().UTC())
		gt.NoError(t, repo.Session().Put(ctx, s)).Required()

		gt.NoError(t, repo.Session().Delete(ctx, s.ID)).Required()
		gt.NoError(t, repo.Session().Delete(ctx, s.ID)).Required()

		_, err := repo.Session().Get(ctx, s.ID)
		gt.Bool(t, errors.Is(err, model.ErrSessionNotFound)).True()
	})

	t.Run("Put rejects session without ID", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Session().Put(context.Background(), &model.Session{Name: "no id"})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, model.ErrInvalidArgument)).True()
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	repo, err := firestore.New(context.Background(), projectID, databaseID,
		firestore.WithCollectionPrefix("test_"))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	repo, err := postgres.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create postgres repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close postgres repository: %v", err)
		}
	})
	return repo
}

func TestMemorySessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreSessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, newFirestoreRepository)
}

func TestPostgresSessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, newPostgresRepository)
}

func TestChromemSessionRepository(t *testing.T) {
	runSessionRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := chromem.NewRepository(t.TempDir(), false)
		gt.NoError(t, err).Required()
		return repo
	})
}

func TestChromemSessionRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := chromem.NewRepository(dir, true)
	gt.NoError(t, err).Required()

	s := newTestSession("persisted", time.Now().UTC().Truncate(time.Millisecond))
	gt.NoError(t, repo.Session().Put(ctx, s)).Required()
	s.Name = "renamed"
	gt.NoError(t, repo.Session().Put(ctx, s)).Required()
	gt.NoError(t, repo.Close()).Required()

	reopened, err := chromem.NewRepository(dir, true)
	gt.NoError(t, err).Required()

	got, err := reopened.Session().Get(ctx, s.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Name).Equal("renamed")
	gt.Value(t, got.FullText).Equal(s.FullText)
	gt.Array(t, got.AskHistory).Length(1)

	sessions, err := reopened.Session().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, sessions).Length(1)
}
