package examination

import (
	"math"
	"strconv"
	"strings"
)

// Handlers translate input events into Store updates. Every handler clears
// the validation error of the path it touched; it does not re-validate.
type Handlers struct {
	store  *Store
	errors *ErrorMap
}

// NewHandlers binds handlers to a store and error map.
func NewHandlers(s *Store, errs *ErrorMap) *Handlers {
	if errs == nil {
		errs = NewErrorMap()
	}
	return &Handlers{store: s, errors: errs}
}

// Text stores value unchanged.
func (h *Handlers) Text(p Path, value string) {
	h.apply(p, value)
}

// Select stores the chosen option unchanged.
func (h *Handlers) Select(p Path, value string) {
	h.apply(p, value)
}

// Radio stores the chosen option unchanged.
func (h *Handlers) Radio(p Path, value string) {
	h.apply(p, value)
}

// Date stores value unchanged; formatting belongs to the date widget.
func (h *Handlers) Date(p Path, value string) {
	h.apply(p, value)
}

// Checkbox adds value to the list at p when checked, otherwise removes its
// first occurrence. Toggling OtherOption on a registered custom selection
// also sets that selection's show flag.
func (h *Handlers) Checkbox(p Path, value string, checked bool) {
	current, _ := h.store.Read(p)
	list := stringList(current)
	idx := indexOf(list, value)
	switch {
	case checked && idx < 0:
		list = append(list, value)
	case !checked && idx >= 0:
		list = append(list[:idx], list[idx+1:]...)
	}
	h.apply(p, list)

	if value != OtherOption {
		return
	}
	if sel, ok := selectionFor(p); ok {
		h.store.Update(sel.flagPath(), checked)
	}
}

// Numeric parses text as a number. Blank, unparseable or non-finite input
// (NaN, Inf) stores the "" sentinel so an empty field is never confused
// with zero.
func (h *Handlers) Numeric(p Path, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		h.apply(p, "")
		return
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		h.apply(p, "")
		return
	}
	h.apply(p, n)
}

// Toggle negates the boolean at p; a missing or non-bool value counts as false.
func (h *Handlers) Toggle(p Path) {
	current, _ := h.store.Read(p)
	b, _ := current.(bool)
	h.apply(p, !b)
}

func (h *Handlers) apply(p Path, value any) {
	h.store.Update(p, value)
	h.errors.Clear(p)
}

func stringList(v any) []string {
	switch typed := v.(type) {
	case []string:
		return append([]string{}, typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func indexOf(list []string, value string) int {
	for i, item := range list {
		if item == value {
			return i
		}
	}
	return -1
}
