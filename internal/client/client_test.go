package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vetclinic/internal/adapters/examinations"
	"vetclinic/internal/core"
	"vetclinic/internal/infra/persistence/memory"
	"vetclinic/pkg/examination"
)

func newServer(t *testing.T) *Client {
	t.Helper()
	svc := core.NewService(memory.NewStore(core.NewDefaultRulesEngine(core.RuleOptions{})))
	srv := httptest.NewServer(examinations.NewHandler(svc, nil))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithHTTPClient(srv.Client()))
}

func TestClientCreateUpdateGet(t *testing.T) {
	ctx := context.Background()
	c := newServer(t)

	created, err := c.CreateExamination(ctx, examination.Payload{
		examination.SectionBasicInformation: map[string]any{"petName": "Fulla"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.PetName != "Fulla" {
		t.Fatalf("unexpected examination %+v", created)
	}

	stored, err := c.Update(ctx, created.ID, examination.Payload{
		examination.SectionBasicInformation: map[string]any{"petName": "Fulla", "weight": 4.5},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	basic := stored[examination.SectionBasicInformation].(map[string]any)
	if basic["weight"] != 4.5 {
		t.Fatalf("unexpected stored payload %v", stored)
	}

	got, err := c.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", got.Revision)
	}
}

func TestClientCreateReturnsPayload(t *testing.T) {
	c := newServer(t)
	stored, err := c.Create(context.Background(), examination.Payload{"followUpDays": 3.0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored["followUpDays"] != 3.0 {
		t.Fatalf("unexpected payload %v", stored)
	}
}

func TestClientSurfacesServerMessage(t *testing.T) {
	c := newServer(t)
	_, err := c.Update(context.Background(), "missing", examination.Payload{})
	var apiErr *examination.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "examination missing not found" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Create(context.Background(), examination.Payload{})
	var apiErr *examination.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientSubmitThroughForm(t *testing.T) {
	c := newServer(t)
	form := examination.NewForm()
	form.Handlers().Text(examination.PathPetName, "Mishmish")

	stored, err := form.Submit(context.Background(), c)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	basic := stored[examination.SectionBasicInformation].(map[string]any)
	if basic["petName"] != "Mishmish" {
		t.Fatalf("unexpected stored payload %v", stored)
	}
}

func TestClientDefaults(t *testing.T) {
	c := New("")
	if c.endpoint != defaultEndpoint || c.http.Timeout != defaultTimeout {
		t.Fatalf("unexpected defaults %+v", c)
	}
}
