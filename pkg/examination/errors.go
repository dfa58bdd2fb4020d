package examination

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

// ErrorMap holds at most one field validation message per path.
type ErrorMap struct {
	mu     sync.RWMutex
	fields map[string]string
}

// NewErrorMap returns an empty error map.
func NewErrorMap() *ErrorMap {
	return &ErrorMap{fields: make(map[string]string)}
}

// Set stores msg for p, replacing any previous message.
func (e *ErrorMap) Set(p Path, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields[p.String()] = msg
}

// Clear removes the message for p, if any.
func (e *ErrorMap) Clear(p Path) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fields, p.String())
}

// Get returns the message for p.
func (e *ErrorMap) Get(p Path) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	msg, ok := e.fields[p.String()]
	return msg, ok
}

// Len returns the number of paths with an error.
func (e *ErrorMap) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.fields)
}

// All returns a copy of the path -> message map.
func (e *ErrorMap) All() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.fields)
}

// Reset drops every message.
func (e *ErrorMap) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields = make(map[string]string)
}

// ErrValidationFailed is returned by Form.Submit when the configured rules
// reject the current record. Details are in the form's ErrorMap.
var ErrValidationFailed = errors.New("examination: validation failed")

// APIError is returned by PersistenceAPI implementations when the remote
// side rejected a request. Message is the server-supplied text, possibly empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("persistence api: status %d", e.Status)
	}
	return fmt.Sprintf("persistence api: status %d: %s", e.Status, e.Message)
}

// SubmissionError carries the user-visible message for a failed submission.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
