package xerrors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryParse    Category = "parse"
	CategoryConfig   Category = "config"
	CategoryGraph    Category = "graph"
	CategoryCLI      Category = "cli"
	CategoryBuild    Category = "build"
	CategoryInternal Category = "internal"
)

// Error is a structured error with a stable code, an optional source
// position, and a hint on how to fix the problem.
type Error struct {
	// Code is a unique error identifier (e.g., "M001").
	Code string

	// Category is the error type (parse, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// File is the source file the error refers to, if any.
	File string

	// Offset is the byte offset into the source where the error occurred.
	// Negative when unknown.
	Offset int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// New creates an error from a registered code. Unknown codes produce an
// internal-category error so a typo never panics at an error site.
func New(code string) *Error {
	if tmpl, ok := registry[code]; ok {
		return &Error{
			Code:     code,
			Category: tmpl.Category,
			Message:  tmpl.Message,
			Detail:   tmpl.Detail,
			DocURL:   tmpl.DocURL,
			Offset:   -1,
		}
	}
	return &Error{
		Code:     code,
		Category: CategoryInternal,
		Message:  "unknown error code",
		Offset:   -1,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Offset:   -1,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.File != "" && e.Offset >= 0 {
		return fmt.Sprintf("%s (%s @%d)", msg, e.File, e.Offset)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithOffset records the byte offset where the error occurred.
func (e *Error) WithOffset(offset int) *Error {
	e.Offset = offset
	return e
}

// WithFile records the file the error refers to.
func (e *Error) WithFile(file string) *Error {
	e.File = file
	return e
}

// WithSuggestion adds a fix hint to the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithDetail replaces the detail text.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf replaces the detail text with a formatted message.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap records the underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}
