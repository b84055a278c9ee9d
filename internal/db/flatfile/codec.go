// Package flatfile stores students as delimited text, one student per line:
//
//	<id>,<name>,<email>,<course>,<score>
//
// There is no header and no quoting. A delimiter inside a text field is
// replaced with a space when writing, so such fields do not round trip.
package flatfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ukane-philemon/srms/internal/db"
	"github.com/ukane-philemon/srms/internal/student"
)

const (
	delimiter = ","
	numFields = 5
)

// fieldReplacer keeps every text field on its own line and inside its column.
var fieldReplacer = strings.NewReplacer(delimiter, " ", "\r", " ", "\n", " ")

// Diagnostic describes a line that was skipped while decoding.
type Diagnostic struct {
	Line int
	Text string
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %v: %q", d.Line, d.Err, d.Text)
}

// Encode writes one line per student to w in the order given.
func Encode(w io.Writer, students []*student.Student) error {
	bw := bufio.NewWriter(w)
	for _, s := range students {
		if _, err := bw.WriteString(formatLine(s.Record())); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Marshal returns the encoded form of students.
func Marshal(students []*student.Student) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = Encode(&buf, students)
	return buf.Bytes()
}

// Decode reads students from r and adds them to repo. Blank lines are
// ignored. Lines that cannot be parsed, fail validation, or repeat an id that
// was already added are skipped and returned as diagnostics. Only read errors
// are returned as an error.
func Decode(r io.Reader, repo student.Repository) ([]Diagnostic, error) {
	var diags []Diagnostic
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return diags, fmt.Errorf("read line %d error: %w", lineNo, err)
		}

		text := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(text) != "" {
			s, perr := parseLine(text)
			if perr == nil {
				perr = repo.Add(s)
			}
			if perr != nil {
				diags = append(diags, Diagnostic{Line: lineNo, Text: text, Err: perr})
			}
		}

		if errors.Is(err, io.EOF) {
			return diags, nil
		}
	}
}

// Unmarshal decodes data into repo.
func Unmarshal(data []byte, repo student.Repository) []Diagnostic {
	// A bytes.Reader never fails.
	diags, _ := Decode(bytes.NewReader(data), repo)
	return diags
}

func formatLine(r student.Record) string {
	fields := []string{
		strconv.Itoa(r.ID),
		fieldReplacer.Replace(r.Name),
		fieldReplacer.Replace(r.Email),
		fieldReplacer.Replace(r.Course),
		formatScore(r.Score),
	}
	return strings.Join(fields, delimiter) + "\n"
}

// formatScore writes the shortest representation of score with at least one
// fractional digit, e.g. 50 -> "50.0".
func formatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseLine(line string) (*student.Student, error) {
	fields := strings.Split(line, delimiter)
	if len(fields) != numFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", db.ErrorInvalidRequest, numFields, len(fields))
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", db.ErrorInvalidRequest, fields[0])
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", db.ErrorInvalidScore, fields[4])
	}

	return student.NewStudent(id, fields[1], fields[2], fields[3], score)
}
