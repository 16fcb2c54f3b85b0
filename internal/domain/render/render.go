// Package render defines the template rendering contract.
package render

import (
	"context"
	"errors"
	"fmt"
)

// Context carries the variables a template is rendered with. It is built per request.
type Context map[string]any

// Renderer produces markup for a named template.
//
// Implementations must be safe for concurrent use: rendering the same name and
// context from many goroutines yields identical output.
type Renderer interface {
	Render(ctx context.Context, name string, data Context) ([]byte, error)
}

// ErrTemplateNotFound is returned when no source defines the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// Error is a failure raised while parsing or executing a template.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %q: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
