package student

import "context"

type Repository interface {
	// Add inserts s. Returns db.ErrorDuplicateKey if a student with the same
	// id already exists.
	Add(s *Student) error
	// Remove deletes the student that match id. Returns db.ErrorNotFound if
	// there is no such student.
	Remove(id int) error
	// Student returns the stored student that match id. Returns
	// db.ErrorNotFound if there is no such student.
	Student(id int) (*Student, error)
	// Update applies value to the named field of the student that match id.
	Update(id int, field Field, value string) error
	// UpdateScore sets the score of the student that match id.
	UpdateScore(id int, score float64) error
	// UpdateEmail sets the email of the student that match id.
	UpdateEmail(id int, email string) error
	// Students returns all students ordered by id. The slice is empty, not
	// nil, when there are no students.
	Students() []*Student
	// StudentsByScore returns all students ordered by score. Ties are broken
	// by ascending id regardless of direction.
	StudentsByScore(ascending bool) []*Student
	// Len returns the number of students.
	Len() int
}

// Persister loads and saves whole snapshots of a Repository.
type Persister interface {
	// Load adds the persisted students to repo. A missing snapshot is not an
	// error and leaves repo unchanged.
	Load(ctx context.Context, repo Repository) error
	// Save replaces the persisted snapshot with the students in repo.
	Save(ctx context.Context, repo Repository) error
}
