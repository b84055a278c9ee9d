// Package session implements the interactive console for managing student
// records.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/db/flatfile"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"
)

// DefaultProgressInterval is the delay between progress dots.
const DefaultProgressInterval = 300 * time.Millisecond

// maxLineLength caps a single input line. Longer lines are discarded.
const maxLineLength = 64 * 1024

var errLineTooLong = errors.New("input line too long")

const menu = `
==== Student Record Management ====
1. Add Student
2. Update Student
3. Delete Student
4. Search Student
5. View All Students
6. View All Students (sorted by marks)
7. Save Now
8. File Info
9. Exit (auto-save)
Choice: `

// InfoFunc reports information about the data file.
type InfoFunc func() (*flatfile.Info, error)

// Config configures a Session.
type Config struct {
	// ProgressInterval is the delay between progress dots. Zero disables
	// the progress indicator.
	ProgressInterval time.Duration
	// Info is used by the file info menu item. It may be nil when the
	// backend is not a file.
	Info InfoFunc
}

// Session reads menu choices and field values from an input stream and
// drives a student.Repository.
type Session struct {
	cfg       Config
	in        *bufio.Reader
	out       io.Writer
	repo      student.Repository
	persister student.Persister
	log       *zap.Logger
}

// New creates a new instance of *Session.
func New(cfg Config, in io.Reader, out io.Writer, repo student.Repository, persister student.Persister, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:       cfg,
		in:        bufio.NewReader(in),
		out:       out,
		repo:      repo,
		persister: persister,
		log:       logger.Named("session"),
	}
}

// Run loads the students, runs the menu loop until the user exits or the
// input ends, and saves the students before returning.
func (s *Session) Run(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return s.save(context.WithoutCancel(ctx))
		}

		choice, ok := s.ask(menu)
		if !ok || choice == "9" {
			err := s.save(ctx)
			s.println("Exiting. Goodbye!")
			return err
		}

		s.dispatch(ctx, choice)
		s.println("-- Operation Completed --")
	}
}

func (s *Session) dispatch(ctx context.Context, choice string) {
	switch choice {
	case "1":
		s.addStudent()
	case "2":
		s.updateStudent()
	case "3":
		s.deleteStudent()
	case "4":
		s.searchStudent()
	case "5":
		s.printStudents("--- All Students ---", s.repo.Students())
	case "6":
		s.printStudents("--- Students Sorted by Marks (ascending) ---", s.repo.StudentsByScore(true))
	case "7":
		if err := s.save(ctx); err != nil {
			s.println(err)
		}
	case "8":
		s.fileInfo()
	default:
		s.println("Invalid choice.")
	}
}

func (s *Session) addStudent() {
	id, ok := s.askID("Enter Roll No: ")
	if !ok {
		return
	}

	if _, err := s.repo.Student(id); err == nil {
		s.println("Duplicate roll number. Aborted.")
		return
	}

	var fields [4]string
	for i, prompt := range []string{"Enter Name: ", "Enter Email: ", "Enter Course: ", "Enter Marks (0-100): "} {
		v, ok := s.ask(prompt)
		if !ok {
			return
		}
		fields[i] = v
	}

	score, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		s.println("Invalid marks.")
		return
	}

	st, err := student.NewStudent(id, fields[0], fields[1], fields[2], score)
	if err != nil {
		s.println(err)
		return
	}

	p := startProgress(s.out, "Adding student", s.cfg.ProgressInterval)
	err = s.repo.Add(st)
	p.Stop()
	if err != nil {
		s.println(err)
		return
	}

	s.log.Debug("Student added", zap.Int("id", id))
	s.println("Student added successfully.")
}

func (s *Session) updateStudent() {
	id, ok := s.askID("Enter roll to update: ")
	if !ok {
		return
	}

	if _, err := s.repo.Student(id); err != nil {
		s.println(err)
		return
	}

	opt, ok := s.ask("Update Options: 1) Marks  2) Email\nChoice: ")
	if !ok {
		return
	}

	var field student.Field
	switch opt {
	case "1":
		field = student.FieldScore
	case "2":
		field = student.FieldEmail
	default:
		s.println("Invalid option.")
		return
	}

	value, ok := s.ask(fmt.Sprintf("Enter new %s: ", field))
	if !ok {
		return
	}

	if err := s.repo.Update(id, field, value); err != nil {
		s.println(err)
		return
	}

	s.log.Debug("Student updated", zap.Int("id", id), zap.String("field", string(field)))
	s.println("Student updated.")
}

func (s *Session) deleteStudent() {
	id, ok := s.askID("Enter roll to delete: ")
	if !ok {
		return
	}

	if err := s.repo.Remove(id); err != nil {
		s.println(err)
		return
	}

	s.println("Student deleted:", id)
}

func (s *Session) searchStudent() {
	id, ok := s.askID("Enter roll to search: ")
	if !ok {
		return
	}

	st, err := s.repo.Student(id)
	if err != nil {
		s.println(err)
		return
	}

	s.println(st)
}

func (s *Session) printStudents(title string, students []*student.Student) {
	if len(students) == 0 {
		s.println("No records.")
		return
	}

	s.println(title)
	for _, st := range students {
		s.println(st)
	}
}

func (s *Session) fileInfo() {
	if s.cfg.Info == nil {
		s.println("File info is only available for the file backend.")
		return
	}

	info, err := s.cfg.Info()
	if err != nil {
		s.println("File info error:", err)
		return
	}

	s.println("File:", info.Name)
	s.println("Path:", info.AbsolutePath)
	s.println("Exists:", info.Exists)
	if info.Exists {
		s.println("Permissions:", info.Mode.Perm())
		s.println("Size (bytes):", info.Size)
		s.println("Modified:", info.ModTime.Format(time.RFC3339))
	}
}

func (s *Session) load(ctx context.Context) error {
	p := startProgress(s.out, "Loading records", s.cfg.ProgressInterval)
	err := s.persister.Load(ctx, s.repo)
	p.Stop()
	if err != nil {
		return fmt.Errorf("load error: %w", err)
	}

	s.println("Load completed.", s.repo.Len(), "record(s) loaded.")
	return nil
}

func (s *Session) save(ctx context.Context) error {
	p := startProgress(s.out, "Saving records", s.cfg.ProgressInterval)
	err := s.persister.Save(ctx, s.repo)
	p.Stop()
	if err != nil {
		return fmt.Errorf("save error: %w", err)
	}

	s.println("Save completed.", s.repo.Len(), "record(s) saved.")
	return nil
}

// ask prints prompt and returns the next trimmed input line. It returns false
// when the input is exhausted. An over-long line is reported and read as
// empty.
func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	line, err := s.readLine()
	switch {
	case err == nil:
		return line, true
	case errors.Is(err, errLineTooLong):
		s.println("Input too long, ignored.")
		return "", true
	case errors.Is(err, io.EOF):
		return "", false
	default:
		s.log.Warn("Reading input failed", zap.Error(err))
		return "", false
	}
}

// readLine reads up to the next newline. A final line without a newline is
// returned as is.
func (s *Session) readLine() (string, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := s.in.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineLength {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && (!errors.Is(err, io.EOF) || (len(line) == 0 && !tooLong)) {
			return "", err
		}
		break
	}

	if tooLong {
		return "", errLineTooLong
	}
	return strings.TrimSpace(string(line)), nil
}

func (s *Session) askID(prompt string) (int, bool) {
	v, ok := s.ask(prompt)
	if !ok {
		return 0, false
	}

	id, err := strconv.Atoi(v)
	if err != nil {
		s.println("Invalid roll format.")
		return 0, false
	}
	return id, true
}

func (s *Session) println(a ...any) {
	for i, v := range a {
		if err, ok := v.(error); ok {
			a[i] = userMessage(err)
		}
	}
	fmt.Fprintln(s.out, a...)
}

// userMessage strips the generic request prefix from user errors.
func userMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, db.ErrorInvalidRequest) {
		msg = strings.TrimPrefix(msg, db.ErrorInvalidRequest.Error()+": ")
	}
	return msg
}
