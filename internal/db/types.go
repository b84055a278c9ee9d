package db

import (
	"errors"
	"fmt"
)

// MinScore and MaxScore are the inclusive bounds of a valid student score.
const (
	MinScore = 0
	MaxScore = 100
)

// ErrorInvalidRequest is a user facing error returned by repositories. Every
// other error kind in this package wraps it.
var ErrorInvalidRequest = errors.New("invalid request")

var (
	// ErrorInvalidScore is returned when a score is outside [MinScore,
	// MaxScore] or is not a number.
	ErrorInvalidScore = fmt.Errorf("%w: invalid score", ErrorInvalidRequest)
	// ErrorInvalidField is returned when a required text field is empty.
	ErrorInvalidField = fmt.Errorf("%w: invalid field", ErrorInvalidRequest)
	// ErrorDuplicateKey is returned when a record with the same id exists.
	ErrorDuplicateKey = fmt.Errorf("%w: duplicate key", ErrorInvalidRequest)
	// ErrorNotFound is returned when no record matches the provided id.
	ErrorNotFound = fmt.Errorf("%w: not found", ErrorInvalidRequest)
)
