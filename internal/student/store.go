package student

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ukane-philemon/srms/internal/db"
)

// Field names an updatable student field.
type Field string

const (
	FieldScore Field = "score"
	FieldEmail Field = "email"
)

// ParseField returns the Field named by s. Case and surrounding whitespace are
// ignored.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldScore, FieldEmail:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown field %q", db.ErrorInvalidRequest, s)
	}
}

// Check that *Store implements Repository.
var _ Repository = (*Store)(nil)

// Store is an in-memory Repository keyed by student id.
type Store struct {
	mtx      sync.RWMutex
	students map[int]*Student
}

// NewStore creates an empty *Store.
func NewStore() *Store {
	return &Store{
		students: make(map[int]*Student),
	}
}

// Add implements Repository.
func (st *Store) Add(s *Student) error {
	if s == nil {
		return fmt.Errorf("%w: missing student", db.ErrorInvalidRequest)
	}

	st.mtx.Lock()
	defer st.mtx.Unlock()

	if _, found := st.students[s.id]; found {
		return fmt.Errorf("%w: student with ID %d already exists", db.ErrorDuplicateKey, s.id)
	}

	st.students[s.id] = s
	return nil
}

// Remove implements Repository.
func (st *Store) Remove(id int) error {
	st.mtx.Lock()
	defer st.mtx.Unlock()

	if _, found := st.students[id]; !found {
		return notFound(id)
	}

	delete(st.students, id)
	return nil
}

// Student implements Repository.
func (st *Store) Student(id int) (*Student, error) {
	st.mtx.RLock()
	defer st.mtx.RUnlock()
	return st.student(id)
}

func (st *Store) student(id int) (*Student, error) {
	s, found := st.students[id]
	if !found {
		return nil, notFound(id)
	}
	return s, nil
}

// Update implements Repository. A score value that is not a number is
// reported as db.ErrorInvalidScore.
func (st *Store) Update(id int, field Field, value string) error {
	switch field {
	case FieldScore:
		score, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", db.ErrorInvalidScore, value)
		}
		return st.UpdateScore(id, score)
	case FieldEmail:
		return st.UpdateEmail(id, value)
	default:
		return fmt.Errorf("%w: unknown field %q", db.ErrorInvalidRequest, field)
	}
}

// UpdateScore implements Repository.
func (st *Store) UpdateScore(id int, score float64) error {
	st.mtx.Lock()
	defer st.mtx.Unlock()

	s, err := st.student(id)
	if err != nil {
		return err
	}
	return s.SetScore(score)
}

// UpdateEmail implements Repository.
func (st *Store) UpdateEmail(id int, email string) error {
	st.mtx.Lock()
	defer st.mtx.Unlock()

	s, err := st.student(id)
	if err != nil {
		return err
	}
	return s.SetEmail(email)
}

// Students implements Repository.
func (st *Store) Students() []*Student {
	st.mtx.RLock()
	students := st.all()
	st.mtx.RUnlock()

	sort.Slice(students, func(i, j int) bool {
		return students[i].id < students[j].id
	})
	return students
}

// StudentsByScore implements Repository.
func (st *Store) StudentsByScore(ascending bool) []*Student {
	// Scores are copied under the store lock so the ordering is consistent
	// even if an update lands while sorting.
	type scored struct {
		s     *Student
		score float64
	}

	st.mtx.RLock()
	entries := make([]scored, 0, len(st.students))
	for _, s := range st.students {
		entries = append(entries, scored{s: s, score: s.Score()})
	}
	st.mtx.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.score != b.score {
			if ascending {
				return a.score < b.score
			}
			return a.score > b.score
		}
		return a.s.id < b.s.id
	})

	students := make([]*Student, len(entries))
	for i, e := range entries {
		students[i] = e.s
	}
	return students
}

// Len implements Repository.
func (st *Store) Len() int {
	st.mtx.RLock()
	defer st.mtx.RUnlock()
	return len(st.students)
}

func (st *Store) all() []*Student {
	students := make([]*Student, 0, len(st.students))
	for _, s := range st.students {
		students = append(students, s)
	}
	return students
}

func notFound(id int) error {
	return fmt.Errorf("%w: no record found for student with ID %d", db.ErrorNotFound, id)
}
