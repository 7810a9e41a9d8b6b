package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/rulecraft/internal/testutil"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/leapstack-labs/rulecraft/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSignature() signature.Signature {
	return signature.Signature{
		Languages:  []string{"Go"},
		Frameworks: []string{"Cobra"},
		Libraries:  []string{"github.com/spf13/cobra"},
		Patterns: signature.PatternSummary{
			Naming:       map[string]string{"function": "camelCase"},
			Architecture: "layered",
			Code:         []string{"constructors"},
		},
		ProjectSize:     signature.SizeSmall,
		Complexity:      signature.ComplexitySimple,
		ComplexityScore: 1.5,
		FileCount:       12,
		Graph:           signature.GraphSummary{Nodes: 12, Edges: 9, CoreModules: []string{"internal/store/db.go"}},
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	put, err := s.Put(ctx, "/src/app", "fp-1", sampleSignature())
	require.NoError(t, err)
	assert.Len(t, put.RunID, 36)

	got, err := s.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, put.RunID, got.RunID)
	assert.Equal(t, "/src/app", got.Root)
	assert.Equal(t, sampleSignature(), got.Signature)
	assert.Equal(t, put.CreatedAt, got.CreatedAt)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, "/a", "fp", sampleSignature())
	require.NoError(t, err)
	second, err := s.Put(ctx, "/b", "fp", signature.Signature{FileCount: 1})
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "/b", all[0].Root)
	assert.Equal(t, 1, all[0].Signature.FileCount)
}

func TestStore_ListPruneClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, fp := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		s.now = func() time.Time { return at }
		_, err := s.Put(ctx, "/p", fp, signature.Signature{FileCount: i})
		require.NoError(t, err)
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].Fingerprint, all[1].Fingerprint, all[2].Fingerprint})

	s.now = func() time.Time { return base.Add(2 * 24 * time.Hour) }
	n, err := s.Prune(ctx, 36*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	_, err = s.Put(ctx, "/p", "fp", sampleSignature())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, path, s.Path())

	_, err = s.Get(ctx, "fp")
	assert.NoError(t, err)
}

func TestStore_DatabaseErrors(t *testing.T) {
	cols := []string{"fingerprint", "root", "run_id", "payload", "created_at"}

	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		call   func(s *Store) error
		errMsg string
	}{
		{
			name: "put exec error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO signatures").
					WithArgs("fp", "/p", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnError(assert.AnError)
			},
			call: func(s *Store) error {
				_, err := s.Put(context.Background(), "/p", "fp", signature.Signature{})
				return err
			},
			errMsg: "failed to store signature",
		},
		{
			name: "get query error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT fingerprint").WithArgs("fp").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error {
				_, err := s.Get(context.Background(), "fp")
				return err
			},
			errMsg: "failed to get signature",
		},
		{
			name: "corrupt payload",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT fingerprint").WithArgs("fp").
					WillReturnRows(sqlmock.NewRows(cols).AddRow("fp", "/p", "run", "{not json", int64(0)))
			},
			call: func(s *Store) error {
				_, err := s.Get(context.Background(), "fp")
				return err
			},
			errMsg: "corrupt payload for fp",
		},
		{
			name: "list row error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT fingerprint").
					WillReturnRows(sqlmock.NewRows(cols).
						AddRow("fp", "/p", "run", "{}", int64(0)).
						RowError(0, assert.AnError))
			},
			call: func(s *Store) error {
				_, err := s.List(context.Background())
				return err
			},
			errMsg: "failed to list signatures",
		},
		{
			name: "prune error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM signatures WHERE").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error {
				_, err := s.Prune(context.Background(), time.Hour)
				return err
			},
			errMsg: "failed to prune signatures",
		},
		{
			name: "clear error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM signatures").WillReturnError(assert.AnError)
			},
			call: func(s *Store) error {
				_, err := s.Clear(context.Background())
				return err
			},
			errMsg: "failed to clear signatures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setup(mock)
			err = tt.call(NewWithDB(db, nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_MigrateWithoutDB(t *testing.T) {
	err := (&Store{}).Migrate(context.Background())
	assert.EqualError(t, err, "database not opened")
}

func TestFingerprint(t *testing.T) {
	model := testutil.Model([]core.File{
		testutil.File("src/b.ts", "./a"),
		testutil.File("src/a.ts"),
	})
	reordered := testutil.Model([]core.File{
		testutil.File("src/a.ts"),
		testutil.File("src/b.ts", "./a"),
	})

	fp := Fingerprint(model)
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint(reordered))

	assert.NotEqual(t, fp, Fingerprint(model, "sample_size=50"))

	changed := testutil.Model([]core.File{
		testutil.File("src/b.ts", "./c"),
		testutil.File("src/a.ts"),
	})
	assert.NotEqual(t, fp, Fingerprint(changed))

	renamed := testutil.Model([]core.File{
		testutil.File("src/b.ts", "./a"),
		testutil.FileWithNames("src/a.ts", core.KindFunction, "doThing"),
	})
	assert.NotEqual(t, fp, Fingerprint(renamed))
}
