// Package api exposes a student.Repository over a JSON HTTP API.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/ukane-philemon/srms/internal/admin"
	"github.com/ukane-philemon/srms/internal/auth"
	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config configures the HTTP API.
type Config struct {
	// RateLimit is the number of requests allowed per IP in RateWindow. Zero
	// disables rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Server serves the student records API.
type Server struct {
	repo      student.Repository
	persister student.Persister
	admins    admin.Repository
	auth      auth.Repository
	log       *zap.Logger
	mux       *chi.Mux
}

// NewServer creates a new instance of *Server. persister is used by the save
// endpoint.
func NewServer(cfg Config, repo student.Repository, persister student.Persister, admins admin.Repository, authRepo auth.Repository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		repo:      repo,
		persister: persister,
		admins:    admins,
		auth:      authRepo,
		log:       logger.Named("api"),
	}

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: zap.NewStdLog(s.log), NoColor: true}))
	mux.Use(middleware.Recoverer)
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		mux.Use(httprate.LimitByIP(cfg.RateLimit, window))
	}
	mux.Use(AuthMiddleware(authRepo))

	mux.Post("/login", s.handleLogin)
	mux.Route("/students", func(r chi.Router) {
		r.Get("/", s.handleStudents)
		r.Get("/{id}", s.handleStudent)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", s.handleAddStudent)
			r.Patch("/{id}", s.handleUpdateStudent)
			r.Delete("/{id}", s.handleRemoveStudent)
		})
	})
	mux.With(requireAdmin).Post("/save", s.handleSave)

	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(res, req)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type updateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleLogin(res http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := decodeBody(res, req, &body); err != nil {
		s.handleError(res, err)
		return
	}

	adminID, err := s.admins.LoginAccount(body.Username, body.Password)
	if err != nil {
		s.handleError(res, err)
		return
	}

	token, err := s.auth.GenerateToken(adminID)
	if err != nil {
		s.handleError(res, err)
		return
	}

	s.log.Info("Admin logged in", zap.String("admin", adminID))
	writeJSON(res, http.StatusOK, &loginResponse{Token: token})
}

func (s *Server) handleStudents(res http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	var ascending bool
	switch order := query.Get("order"); order {
	case "", "asc":
		ascending = true
	case "desc":
	default:
		s.handleError(res, fmt.Errorf("%w: unknown order %q", db.ErrorInvalidRequest, order))
		return
	}

	var students []*student.Student
	switch sortBy := query.Get("sort"); sortBy {
	case "", "id":
		students = s.repo.Students()
		if !ascending {
			for i, j := 0, len(students)-1; i < j; i, j = i+1, j-1 {
				students[i], students[j] = students[j], students[i]
			}
		}
	case "score":
		students = s.repo.StudentsByScore(ascending)
	default:
		s.handleError(res, fmt.Errorf("%w: unknown sort %q", db.ErrorInvalidRequest, sortBy))
		return
	}

	writeJSON(res, http.StatusOK, records(students))
}

func (s *Server) handleStudent(res http.ResponseWriter, req *http.Request) {
	id, err := studentID(req)
	if err != nil {
		s.handleError(res, err)
		return
	}

	st, err := s.repo.Student(id)
	if err != nil {
		s.handleError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, st.Record())
}

func (s *Server) handleAddStudent(res http.ResponseWriter, req *http.Request) {
	var body student.Record
	if err := decodeBody(res, req, &body); err != nil {
		s.handleError(res, err)
		return
	}

	st, err := student.FromRecord(body)
	if err != nil {
		s.handleError(res, err)
		return
	}

	if err := s.repo.Add(st); err != nil {
		s.handleError(res, err)
		return
	}

	s.log.Info("Student added", zap.Int("id", st.ID()))
	writeJSON(res, http.StatusCreated, st.Record())
}

func (s *Server) handleUpdateStudent(res http.ResponseWriter, req *http.Request) {
	id, err := studentID(req)
	if err != nil {
		s.handleError(res, err)
		return
	}

	var body updateRequest
	if err := decodeBody(res, req, &body); err != nil {
		s.handleError(res, err)
		return
	}

	field, err := student.ParseField(body.Field)
	if err != nil {
		s.handleError(res, err)
		return
	}

	st, err := s.repo.Student(id)
	if err != nil {
		s.handleError(res, err)
		return
	}

	if err := s.repo.Update(id, field, rawValue(body.Value)); err != nil {
		s.handleError(res, err)
		return
	}

	s.log.Info("Student updated", zap.Int("id", id), zap.String("field", string(field)))
	writeJSON(res, http.StatusOK, st.Record())
}

func (s *Server) handleRemoveStudent(res http.ResponseWriter, req *http.Request) {
	id, err := studentID(req)
	if err != nil {
		s.handleError(res, err)
		return
	}

	if err := s.repo.Remove(id); err != nil {
		s.handleError(res, err)
		return
	}

	s.log.Info("Student deleted", zap.Int("id", id))
	res.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(res http.ResponseWriter, req *http.Request) {
	if err := s.persister.Save(req.Context(), s.repo); err != nil {
		s.handleError(res, err)
		return
	}

	s.log.Info("Students saved", zap.Int("records", s.repo.Len()))
	res.WriteHeader(http.StatusNoContent)
}

func studentID(req *http.Request) (int, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid student ID %q", db.ErrorInvalidRequest, raw)
	}
	return id, nil
}

func decodeBody(res http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", db.ErrorInvalidRequest, err)
	}
	return nil
}

// rawValue returns a JSON string value unquoted and any other JSON value as
// written, so both "50" and 50 are accepted for a score.
func rawValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func records(students []*student.Student) []student.Record {
	out := make([]student.Record, len(students))
	for i, st := range students {
		out[i] = st.Record()
	}
	return out
}
