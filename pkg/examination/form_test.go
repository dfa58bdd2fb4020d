package examination

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type fakeAPI struct {
	mu       sync.Mutex
	created  []Payload
	updated  map[string]Payload
	err      error
	inFlight func()
}

func (f *fakeAPI) Create(_ context.Context, p Payload) (Payload, error) {
	if f.inFlight != nil {
		f.inFlight()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, p Payload) (Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[string]Payload{}
	}
	f.updated[id] = p
	return p, nil
}

func requiredPetName() RuleSet {
	return RuleSet{PathPetName.String(): {Required: true}}
}

func TestSubmitCreatesAndResets(t *testing.T) {
	api := &fakeAPI{}
	f := NewForm(WithRules(requiredPetName()))
	f.Handlers().Text(PathPetName, "Fulla")
	f.Handlers().Numeric(PathWeight, "4.5")
	f.Handlers().Checkbox(PathVomitContent, "bile", true)

	stored, err := f.Submit(context.Background(), api)
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	require.Equal(t, "bile", stored[SectionVomiting].(map[string]any)["vomitContent"])
	require.Equal(t, 4.5, stored[SectionBasicInformation].(map[string]any)["weight"])

	name, _ := f.Store().Read(PathPetName)
	require.Equal(t, "", name, "store should reset after success")
	require.False(t, f.IsSubmitting())
}

func TestSubmitValidationFailureKeepsRecord(t *testing.T) {
	api := &fakeAPI{}
	f := NewForm(WithRules(requiredPetName()), WithMessages(NewMessages(language.English)))
	f.Handlers().Text(PathOwnerName, "Samir")

	_, err := f.Submit(context.Background(), api)
	require.ErrorIs(t, err, ErrValidationFailed)
	require.Empty(t, api.created)
	msg, ok := f.Errors().Get(PathPetName)
	require.True(t, ok)
	require.Equal(t, NewMessages(language.English).Required(), msg)

	owner, _ := f.Store().Read(PathOwnerName)
	require.Equal(t, "Samir", owner)
}

func TestSubmitAPIErrorMessagePassesThrough(t *testing.T) {
	api := &fakeAPI{err: &APIError{Status: 409, Message: "duplicate examination"}}
	f := NewForm()
	f.Handlers().Text(PathPetName, "Fulla")

	_, err := f.Submit(context.Background(), api)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	require.Equal(t, "duplicate examination", subErr.Message)
	require.Equal(t, "duplicate examination", f.SubmitError())

	name, _ := f.Store().Read(PathPetName)
	require.Equal(t, "Fulla", name, "record must survive a failed submission")
}

func TestSubmitGenericFailureUsesLocalizedMessage(t *testing.T) {
	for _, cause := range []error{errors.New("connection refused"), &APIError{Status: 500}} {
		f := NewForm()
		_, err := f.Submit(context.Background(), &fakeAPI{err: cause})
		var subErr *SubmissionError
		require.ErrorAs(t, err, &subErr)
		require.Equal(t, NewMessages(language.Arabic).SubmitFailed(), subErr.Message)
		require.ErrorIs(t, err, cause)
	}
}

func TestEditFormUsesUpdate(t *testing.T) {
	api := &fakeAPI{}
	stored := Payload{
		SectionBasicInformation: map[string]any{"petName": "Lulu", "weight": 3.2},
		SectionDiet:             map[string]any{"foodType": "dry, wet"},
	}
	f := EditForm("exam-7", stored)
	require.Equal(t, "exam-7", f.ID())

	foods, _ := f.Store().Read(PathFoodType)
	require.Equal(t, []string{"dry", "wet"}, foods)

	f.Handlers().Checkbox(PathFoodType, "wet", false)
	_, err := f.Submit(context.Background(), api)
	require.NoError(t, err)
	require.Empty(t, api.created)
	require.Contains(t, api.updated, "exam-7")
	require.Equal(t, "dry", api.updated["exam-7"][SectionDiet].(map[string]any)["foodType"])
}

func TestIsSubmittingDuringCall(t *testing.T) {
	f := NewForm()
	var during bool
	api := &fakeAPI{inFlight: func() { during = f.IsSubmitting() }}
	_, err := f.Submit(context.Background(), api)
	require.NoError(t, err)
	require.True(t, during)
	require.False(t, f.IsSubmitting())
}

func TestFormResetClearsErrors(t *testing.T) {
	f := NewForm(WithRules(requiredPetName()))
	f.Handlers().Text(PathOwnerName, "x")
	require.False(t, f.Validate())
	f.Reset()
	require.Zero(t, f.Errors().Len())
	owner, _ := f.Store().Read(PathOwnerName)
	require.Equal(t, "", owner)
}
