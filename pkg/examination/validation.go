package examination

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// FieldRules configures the checks for one path. Zero values disable a check.
type FieldRules struct {
	Required  bool   `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// RuleSet maps dotted paths to their rules.
type RuleSet map[string]FieldRules

// Compile checks that every pattern in the set is a valid regular expression.
func (rs RuleSet) Compile() error {
	for _, path := range rs.Paths() {
		rules := rs[path]
		if rules.MinLength > 0 && rules.MaxLength > 0 && rules.MinLength > rules.MaxLength {
			return fmt.Errorf("rule %s: minLength %d exceeds maxLength %d", path, rules.MinLength, rules.MaxLength)
		}
		if rules.Pattern == "" {
			continue
		}
		if _, err := regexp.Compile(rules.Pattern); err != nil {
			return fmt.Errorf("rule %s: pattern: %w", path, err)
		}
	}
	return nil
}

// Paths returns the configured paths in sorted order.
func (rs RuleSet) Paths() []string {
	out := make([]string, 0, len(rs))
	for p := range rs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Validator evaluates FieldRules and records failures in an ErrorMap.
type Validator struct {
	errors   *ErrorMap
	messages Messages

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewValidator returns a validator writing to errs.
func NewValidator(errs *ErrorMap, msgs Messages) *Validator {
	if errs == nil {
		errs = NewErrorMap()
	}
	return &Validator{errors: errs, messages: msgs, patterns: make(map[string]*regexp.Regexp)}
}

// Errors returns the error map the validator writes to.
func (v *Validator) Errors() *ErrorMap { return v.errors }

// ValidateField applies rules to value in the order required, minLength,
// maxLength, pattern. The first failure is stored under p; a pass clears p.
func (v *Validator) ValidateField(p Path, value any, rules FieldRules) bool {
	if msg, failed := v.check(value, rules); failed {
		v.errors.Set(p, msg)
		return false
	}
	v.errors.Clear(p)
	return true
}

// ValidateForm validates every path in rules against the store's current
// record. All failures are recorded; the result is true only if every path passed.
func (v *Validator) ValidateForm(s *Store, rules RuleSet) bool {
	record := s.Snapshot()
	ok := true
	for _, dotted := range rules.Paths() {
		p := ParsePath(dotted)
		value, _ := Get(record, p)
		if !v.ValidateField(p, value, rules[dotted]) {
			ok = false
		}
	}
	return ok
}

func (v *Validator) check(value any, rules FieldRules) (string, bool) {
	if rules.Required && isEmpty(value) {
		return v.messages.Required(), true
	}
	n, measurable := length(value)
	if rules.MinLength > 0 && measurable && n < rules.MinLength {
		return v.messages.MinLength(rules.MinLength), true
	}
	if rules.MaxLength > 0 && measurable && n > rules.MaxLength {
		return v.messages.MaxLength(rules.MaxLength), true
	}
	if rules.Pattern != "" && !isEmpty(value) {
		re, err := v.pattern(rules.Pattern)
		if err != nil || !re.MatchString(scalarText(value)) {
			return v.messages.Pattern(), true
		}
	}
	return "", false
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns[expr] = re
	return re, nil
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case bool:
		return !typed
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}

func length(value any) (int, bool) {
	switch typed := value.(type) {
	case string:
		return utf8.RuneCountInString(typed), true
	case []string:
		return len(typed), true
	case []any:
		return len(typed), true
	default:
		return 0, false
	}
}

func scalarText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}
