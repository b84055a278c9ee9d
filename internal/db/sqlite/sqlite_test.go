package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap/zaptest"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "students.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	st := student.NewStore()
	for _, r := range []student.Record{
		{ID: 1, Name: "Ann", Email: "ann@example.com", Course: "CS", Score: 95},
		{ID: 2, Name: "Doe, Jane", Email: "", Course: "Math", Score: 59.999},
	} {
		s, err := student.FromRecord(r)
		require.NoError(t, err)
		require.NoError(t, st.Add(s))
	}
	require.NoError(t, db.Save(ctx, st))

	loaded := student.NewStore()
	require.NoError(t, db.Load(ctx, loaded))

	var want, got []student.Record
	for _, s := range st.Students() {
		want = append(want, s.Record())
	}
	for _, s := range loaded.Students() {
		got = append(got, s.Record())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	st := student.NewStore()
	s, err := student.NewStudent(1, "Ann", "", "CS", 80)
	require.NoError(t, err)
	require.NoError(t, st.Add(s))
	require.NoError(t, db.Save(ctx, st))

	require.NoError(t, st.Remove(1))
	require.NoError(t, db.Save(ctx, st))

	loaded := student.NewStore()
	require.NoError(t, db.Load(ctx, loaded))
	assert.Equal(t, 0, loaded.Len())
}

func TestSQLiteLoadSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.db.ExecContext(ctx, `INSERT INTO students (id, name, email, course, score) VALUES (1, 'Ann', '', 'CS', 150), (2, 'Bob', '', 'CS', 70)`)
	require.NoError(t, err)

	loaded := student.NewStore()
	require.NoError(t, db.Load(ctx, loaded))
	assert.Equal(t, 1, loaded.Len())
	_, err = loaded.Student(2)
	assert.NoError(t, err)
}
