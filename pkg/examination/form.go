package examination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// PersistenceAPI stores submitted payloads. Create is used for new
// examinations, Update for edits of an existing one.
type PersistenceAPI interface {
	Create(ctx context.Context, payload Payload) (Payload, error)
	Update(ctx context.Context, id string, payload Payload) (Payload, error)
}

// Form is one editing session: a store, its error map, handlers, a
// validator and the rules that gate submission.
type Form struct {
	store     *Store
	errors    *ErrorMap
	handlers  *Handlers
	validator *Validator
	messages  Messages
	rules     RuleSet
	id        string

	submitting atomic.Bool
	mu         sync.Mutex
	submitErr  string
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithRules sets the rules evaluated before submission.
func WithRules(rules RuleSet) FormOption {
	return func(f *Form) { f.rules = rules }
}

// WithMessages sets the message catalog used by validation and submission.
func WithMessages(m Messages) FormOption {
	return func(f *Form) { f.messages = m }
}

// NewForm starts a session for a new examination.
func NewForm(opts ...FormOption) *Form {
	return newForm("", NewRecord(), opts)
}

// EditForm starts a session editing the stored examination id, hydrated
// from its payload.
func EditForm(id string, stored Payload, opts ...FormOption) *Form {
	return newForm(id, Hydrate(stored), opts)
}

func newForm(id string, initial Record, opts []FormOption) *Form {
	f := &Form{id: id, errors: NewErrorMap(), rules: RuleSet{}}
	for _, opt := range opts {
		opt(f)
	}
	if f.messages.printer == nil {
		f.messages = NewMessages(ParseLocale(""))
	}
	f.store = NewStore(initial)
	f.handlers = NewHandlers(f.store, f.errors)
	f.validator = NewValidator(f.errors, f.messages)
	return f
}

// ID returns the examination id being edited, or "" for a new examination.
func (f *Form) ID() string { return f.id }

// Store returns the session store.
func (f *Form) Store() *Store { return f.store }

// Handlers returns the field change handlers bound to the session.
func (f *Form) Handlers() *Handlers { return f.handlers }

// Errors returns the field error map.
func (f *Form) Errors() *ErrorMap { return f.errors }

// Validator returns the session validator.
func (f *Form) Validator() *Validator { return f.validator }

// AppendItem validates and appends the drafted entry of kind.
func (f *Form) AppendItem(kind ItemKind) (ItemErrors, error) {
	return AppendItem(f.store, kind, f.messages)
}

// RemoveItem removes the entry at index from kind's list.
func (f *Form) RemoveItem(kind ItemKind, index int) error {
	return RemoveItem(f.store, kind, index)
}

// Validate runs the configured rules against the current record.
func (f *Form) Validate() bool {
	return f.validator.ValidateForm(f.store, f.rules)
}

// IsSubmitting reports whether a Submit call is in flight. Callers use it to
// disable a second submit; Submit itself does not reject overlapping calls.
func (f *Form) IsSubmitting() bool { return f.submitting.Load() }

// SubmitError returns the message of the last failed submission, or "".
func (f *Form) SubmitError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitErr
}

// Reset returns the record to its initial shape and clears all errors.
func (f *Form) Reset() {
	f.store.Reset()
	f.errors.Reset()
	f.setSubmitError("")
}

// Submit validates, transforms and sends the record. On success the session
// is reset and the stored payload returned. Validation failure returns
// ErrValidationFailed; a rejected request returns a *SubmissionError. In both
// cases the record is left untouched.
func (f *Form) Submit(ctx context.Context, api PersistenceAPI) (Payload, error) {
	f.submitting.Store(true)
	defer f.submitting.Store(false)
	f.setSubmitError("")

	if !f.Validate() {
		return nil, ErrValidationFailed
	}

	payload := Transform(f.store.Snapshot())
	var (
		stored Payload
		err    error
	)
	if f.id == "" {
		stored, err = api.Create(ctx, payload)
	} else {
		stored, err = api.Update(ctx, f.id, payload)
	}
	if err != nil {
		subErr := &SubmissionError{Message: f.messages.SubmitFailed(), Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			subErr.Message = apiErr.Message
		}
		f.setSubmitError(subErr.Message)
		return nil, subErr
	}

	f.store.Reset()
	f.errors.Reset()
	return stored, nil
}

func (f *Form) setSubmitError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitErr = msg
}
