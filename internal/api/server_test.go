package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukane-philemon/srms/internal/admin"
	"github.com/ukane-philemon/srms/internal/auth"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fakePersister struct {
	saves int
	err   error
}

func (fp *fakePersister) Load(context.Context, student.Repository) error { return nil }

func (fp *fakePersister) Save(context.Context, student.Repository) error {
	fp.saves++
	return fp.err
}

type testServer struct {
	*Server
	store     *student.Store
	persister *fakePersister
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	admins, err := admin.NewRepository("admin", hash)
	require.NoError(t, err)
	authRepo, err := auth.NewRepository(nil, 0)
	require.NoError(t, err)

	store := student.NewStore()
	persister := new(fakePersister)
	return &testServer{
		Server:    NewServer(cfg, store, persister, admins, authRepo, zaptest.NewLogger(t)),
		store:     store,
		persister: persister,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set(jwtHeader, token)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/login", "", `{"username":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []student.Record {
	t.Helper()
	var out []student.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.login(t)

	rec := ts.do(t, http.MethodPost, "/login", "", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/login", "", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMutationsRequireAuth(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodPost, "/students", "", `{"id":1,"name":"Ann","course":"CS","score":95}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/students", "bogus", `{"id":1,"name":"Ann","course":"CS","score":95}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/students/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/save", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, ts.persister.saves)
	assert.Equal(t, 0, ts.store.Len())
}

func TestStudentLifecycle(t *testing.T) {
	ts := newTestServer(t, Config{})
	token := ts.login(t)

	rec := ts.do(t, http.MethodPost, "/students", token, `{"id":1,"name":"Ann","email":"ann@example.com","course":"CS","score":95}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created student.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, student.GradeA, created.Grade)

	rec = ts.do(t, http.MethodPost, "/students", token, `{"id":1,"name":"Bob","course":"CS","score":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/students", token, `{"id":2,"name":"Bob","course":"CS","score":101}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/students/1", token, `{"field":"score","value":50}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated student.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 50.0, updated.Score)
	assert.Equal(t, student.GradeD, updated.Grade)

	rec = ts.do(t, http.MethodPatch, "/students/1", token, `{"field":"email","value":"ann@uni.edu"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/students/1", token, `{"field":"course","value":"Math"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/students/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got student.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, student.Record{ID: 1, Name: "Ann", Email: "ann@uni.edu", Course: "CS", Score: 50, Grade: student.GradeD}, got)

	rec = ts.do(t, http.MethodPost, "/save", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, ts.persister.saves)

	rec = ts.do(t, http.MethodDelete, "/students/1", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/students/1", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/students/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// removeAfterUpdate deletes a student right after updating it.
type removeAfterUpdate struct {
	*student.Store
}

func (r removeAfterUpdate) Update(id int, field student.Field, value string) error {
	if err := r.Store.Update(id, field, value); err != nil {
		return err
	}
	return r.Store.Remove(id)
}

func TestUpdateThenConcurrentDelete(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.repo = removeAfterUpdate{ts.store}
	token := ts.login(t)

	st, err := student.NewStudent(1, "Ann", "ann@example.com", "CS", 95)
	require.NoError(t, err)
	require.NoError(t, ts.store.Add(st))

	rec := ts.do(t, http.MethodPatch, "/students/1", token, `{"field":"score","value":50}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got student.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 50.0, got.Score)
	assert.Equal(t, student.GradeD, got.Grade)
	assert.Equal(t, 0, ts.store.Len())
}

func TestListStudents(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(t, http.MethodGet, "/students", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	for i, score := range []float64{72, 91, 40, 91} {
		s, err := student.NewStudent(i+1, "s", "", "CS", score)
		require.NoError(t, err)
		require.NoError(t, ts.store.Add(s))
	}

	ids := func(recs []student.Record) []int {
		var out []int
		for _, r := range recs {
			out = append(out, r.ID)
		}
		return out
	}

	rec = ts.do(t, http.MethodGet, "/students", "", "")
	assert.Equal(t, []int{1, 2, 3, 4}, ids(decodeRecords(t, rec)))

	rec = ts.do(t, http.MethodGet, "/students?order=desc", "", "")
	assert.Equal(t, []int{4, 3, 2, 1}, ids(decodeRecords(t, rec)))

	rec = ts.do(t, http.MethodGet, "/students?sort=score", "", "")
	assert.Equal(t, []int{3, 1, 2, 4}, ids(decodeRecords(t, rec)))

	rec = ts.do(t, http.MethodGet, "/students?sort=score&order=desc", "", "")
	assert.Equal(t, []int{2, 4, 1, 3}, ids(decodeRecords(t, rec)))

	rec = ts.do(t, http.MethodGet, "/students?sort=name", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveErrorIsHidden(t *testing.T) {
	ts := newTestServer(t, Config{})
	token := ts.login(t)
	ts.persister.err = errors.New("disk on fire")

	rec := ts.do(t, http.MethodPost, "/save", token, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 2})

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/students", "", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/students", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, "/students", "", "").Code)
}
