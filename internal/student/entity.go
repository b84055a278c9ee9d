package student

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ukane-philemon/srms/internal/db"
)

// Grade is the single letter classification derived from a score.
type Grade rune

const (
	GradeA Grade = 'A'
	GradeB Grade = 'B'
	GradeC Grade = 'C'
	GradeD Grade = 'D'
	GradeF Grade = 'F'
)

func (g Grade) String() string {
	return string(rune(g))
}

// MarshalText encodes the grade as its letter.
func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a grade letter. An empty value decodes to the zero
// Grade.
func (g *Grade) UnmarshalText(text []byte) error {
	switch s := strings.ToUpper(string(text)); s {
	case "":
		*g = 0
	case "A", "B", "C", "D", "F":
		*g = Grade(s[0])
	default:
		return fmt.Errorf("%w: unknown grade %q", db.ErrorInvalidRequest, text)
	}
	return nil
}

// GradeOf returns the grade for score. Band lower bounds are inclusive and no
// rounding is applied. Callers validate the score before grading it.
func GradeOf(score float64) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 75:
		return GradeB
	case score >= 60:
		return GradeC
	case score >= 45:
		return GradeD
	default:
		return GradeF
	}
}

// Record is a point-in-time copy of a student's fields.
type Record struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Course string  `json:"course"`
	Score  float64 `json:"score"`
	Grade  Grade   `json:"grade"`
}

// Student is a single student record. Its grade always matches its score.
// Fields are only changed through SetScore and SetEmail, which makes a
// *Student returned by a Repository safe to read while the Repository updates
// it.
type Student struct {
	mtx    sync.RWMutex
	id     int
	name   string
	email  string
	course string
	score  float64
	grade  Grade
}

// NewStudent creates a student record. Returns db.ErrorInvalidScore if score
// is outside [db.MinScore, db.MaxScore] and db.ErrorInvalidField if name or
// course is empty. The email is optional.
func NewStudent(id int, name, email, course string, score float64) (*Student, error) {
	if isBlank(name) {
		return nil, fmt.Errorf("%w: name is required", db.ErrorInvalidField)
	}

	if isBlank(course) {
		return nil, fmt.Errorf("%w: course is required", db.ErrorInvalidField)
	}

	if err := validateScore(score); err != nil {
		return nil, err
	}

	return &Student{
		id:     id,
		name:   name,
		email:  email,
		course: course,
		score:  score,
		grade:  GradeOf(score),
	}, nil
}

// FromRecord creates a student from r. The grade in r is ignored and derived
// from r.Score.
func FromRecord(r Record) (*Student, error) {
	return NewStudent(r.ID, r.Name, r.Email, r.Course, r.Score)
}

func (s *Student) ID() int {
	return s.id
}

func (s *Student) Name() string {
	return s.name
}

func (s *Student) Course() string {
	return s.course
}

func (s *Student) Email() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.email
}

func (s *Student) Score() float64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.score
}

func (s *Student) Grade() Grade {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.grade
}

// SetScore replaces the score and recomputes the grade. The student is left
// unchanged if score is invalid.
func (s *Student) SetScore(score float64) error {
	if err := validateScore(score); err != nil {
		return err
	}

	s.mtx.Lock()
	s.score = score
	s.grade = GradeOf(score)
	s.mtx.Unlock()
	return nil
}

// SetEmail replaces the email. Returns db.ErrorInvalidField if email is empty.
func (s *Student) SetEmail(email string) error {
	if isBlank(email) {
		return fmt.Errorf("%w: email is required", db.ErrorInvalidField)
	}

	s.mtx.Lock()
	s.email = email
	s.mtx.Unlock()
	return nil
}

// Record returns a copy of the student's current fields.
func (s *Student) Record() Record {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return Record{
		ID:     s.id,
		Name:   s.name,
		Email:  s.email,
		Course: s.course,
		Score:  s.score,
		Grade:  s.grade,
	}
}

func (s *Student) String() string {
	r := s.Record()
	return fmt.Sprintf("Roll: %d | Name: %s | Email: %s | Course: %s | Marks: %.2f | Grade: %s",
		r.ID, r.Name, r.Email, r.Course, r.Score, r.Grade)
}

func validateScore(score float64) error {
	if math.IsNaN(score) || score < db.MinScore || score > db.MaxScore {
		return fmt.Errorf("%w: score must be between %d and %d, got %v", db.ErrorInvalidScore, db.MinScore, db.MaxScore, score)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
