package examinations

import (
	"net/http"

	"vetclinic/docs/schema/openapi"
)

// NewOpenAPIHandler serves the embedded API contract as YAML.
func NewOpenAPIHandler() http.Handler {
	spec := openapi.Spec()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(spec)
	})
}
