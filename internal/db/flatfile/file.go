package flatfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"
)

const fileMode = 0644

// Check that *File implements student.Persister.
var _ student.Persister = (*File)(nil)

// File persists students to a flat file on disk.
type File struct {
	path string
	log  *zap.Logger
}

// Info describes the data file.
type Info struct {
	Name         string
	AbsolutePath string
	Exists       bool
	Size         int64
	Mode         fs.FileMode
	ModTime      time.Time
}

// NewFile creates a new instance of *File for path.
func NewFile(path string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{
		path: path,
		log:  logger.Named("flatfile"),
	}
}

// Path returns the location of the data file.
func (f *File) Path() string {
	return f.path
}

// Load implements student.Persister. Skipped lines are logged.
func (f *File) Load(ctx context.Context, repo student.Repository) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.log.Info("Data file does not exist yet", zap.String("path", f.path))
			return nil
		}
		return fmt.Errorf("os.Open error: %w", err)
	}
	defer file.Close()

	before := repo.Len()
	diags, err := Decode(file, repo)
	for _, d := range diags {
		f.log.Warn("Skipping invalid record", zap.Int("line", d.Line), zap.String("text", d.Text), zap.Error(d.Err))
	}
	if err != nil {
		return err
	}

	f.log.Debug("Load completed", zap.String("path", f.path), zap.Int("records", repo.Len()-before), zap.Int("skipped", len(diags)))
	return nil
}

// Save implements student.Persister. The file is replaced atomically: data
// is written to a temporary file in the same directory which is then renamed
// over the destination.
func (f *File) Save(ctx context.Context, repo student.Repository) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	students := repo.Students()
	if err := renameio.WriteFile(f.path, Marshal(students), fileMode); err != nil {
		return fmt.Errorf("renameio.WriteFile error: %w", err)
	}

	f.log.Debug("Save completed", zap.String("path", f.path), zap.Int("records", len(students)))
	return nil
}

// Info returns information about the data file. A missing file is reported
// with Exists set to false.
func (f *File) Info() (*Info, error) {
	absPath, err := filepath.Abs(f.path)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs error: %w", err)
	}

	info := &Info{
		Name:         filepath.Base(f.path),
		AbsolutePath: absPath,
	}

	st, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return nil, fmt.Errorf("os.Stat error: %w", err)
	}

	info.Exists = true
	info.Size = st.Size()
	info.Mode = st.Mode()
	info.ModTime = st.ModTime()
	return info, nil
}
