package userservice

import (
	"errors"
	"fmt"
	"strings"
)

// Operation names, used as the middle part of Error.NameFull.
const (
	OpFind         = "find"
	OpFindQuery    = "findQuery"
	OpRegister     = "register"
	OpAuthenticate = "authenticate"
	OpEdit         = "edit"
	OpRemove       = "remove"
)

// Error names.
const (
	NameNotFound         = "notFound"
	NameQueryValidity    = "queryValidity"
	NameValidity         = "validity"
	NameTaken            = "taken"
	NameHash             = "hash"
	NameSave             = "save"
	NamePasswordValidity = "passwordValidity"
	NameUsername         = "username"
	NamePassword         = "password"
	NameAuthenticate     = "authenticate"
	NameNoNewData        = "noNewData"
	NameEditValidity     = "editValidity"
	NameEmailTaken       = "emailTaken"
	NameUsernameTaken    = "usernameTaken"
	NameWrite            = "write"
	NameUnknown1         = "unknown1"
	NameException        = "exception"
)

// Sentinels for errors.Is. They match any Error with the same Name,
// whichever operation produced it.
var (
	ErrNotFound         = &Error{Name: NameNotFound}
	ErrQueryValidity    = &Error{Name: NameQueryValidity}
	ErrValidity         = &Error{Name: NameValidity}
	ErrTaken            = &Error{Name: NameTaken}
	ErrHash             = &Error{Name: NameHash}
	ErrSave             = &Error{Name: NameSave}
	ErrPasswordValidity = &Error{Name: NamePasswordValidity}
	ErrUsername         = &Error{Name: NameUsername}
	ErrPassword         = &Error{Name: NamePassword}
	ErrAuthenticate     = &Error{Name: NameAuthenticate}
	ErrNoNewData        = &Error{Name: NameNoNewData}
	ErrEditValidity     = &Error{Name: NameEditValidity}
	ErrEmailTaken       = &Error{Name: NameEmailTaken}
	ErrUsernameTaken    = &Error{Name: NameUsernameTaken}
	ErrWrite            = &Error{Name: NameWrite}
	ErrUnknown1         = &Error{Name: NameUnknown1}
	ErrException        = &Error{Name: NameException}
)

// Error is the failure reported by an account operation.
type Error struct {
	Name     string         `json:"errorName"`
	NameFull string         `json:"errorNameFull"`
	Data     map[string]any `json:"errorData,omitempty"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func newError(op, name string, cause error, data map[string]any) *Error {
	return &Error{
		Name:     name,
		NameFull: fmt.Sprintf("JoAuth.%s.%s", op, name),
		Data:     data,
		Err:      cause,
	}
}

func (e *Error) Error() string {
	msg := e.NameFull
	if msg == "" {
		msg = e.Name
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Name == e.Name
}

// Errors is returned when several independent checks failed at once.
type Errors []*Error

func (es Errors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func (es Errors) Unwrap() []error {
	out := make([]error, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

// List flattens err into the account errors it carries.
func List(err error) []*Error {
	var list Errors
	if errors.As(err, &list) {
		return list
	}
	var single *Error
	if errors.As(err, &single) {
		return []*Error{single}
	}
	return nil
}

// join returns the single error as is and wraps several in Errors.
func join(errs []*Error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return Errors(errs)
	}
}
