package examination

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: either a map key or a list index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a map-key segment.
func Key(name string) Segment { return Segment{key: name} }

// Index returns a list-index segment.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses a list element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Name returns the segment as it appears in the dotted form.
func (s Segment) Name() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path addresses a leaf or sub-tree within a Record.
type Path []Segment

// ParsePath splits a dot-delimited path. All-digit parts become index
// segments; empty parts are dropped.
func ParsePath(dotted string) Path {
	if dotted == "" {
		return nil
	}
	parts := strings.Split(dotted, ".")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 && isDigits(part) {
			out = append(out, Index(i))
			continue
		}
		out = append(out, Key(part))
	}
	return out
}

// MustPath is ParsePath for package-level path constants.
func MustPath(dotted string) Path {
	p := ParsePath(dotted)
	if len(p) == 0 {
		panic("examination: empty path " + strconv.Quote(dotted))
	}
	return p
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// String renders the dotted form, used as the error map key.
func (p Path) String() string {
	names := make([]string, len(p))
	for i, seg := range p {
		names[i] = seg.Name()
	}
	return strings.Join(names, ".")
}

// Child returns a new path extended by segs; p is not modified.
func (p Path) Child(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Get walks r along p. Missing or mistyped intermediate nodes yield (nil, false).
func Get(r Record, p Path) (any, bool) {
	var node any = map[string]any(r)
	for _, seg := range p {
		next, ok := step(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

func step(node any, seg Segment) (any, bool) {
	switch typed := node.(type) {
	case map[string]any:
		v, ok := typed[seg.Name()]
		return v, ok
	case Record:
		v, ok := typed[seg.Name()]
		return v, ok
	case []any:
		if !seg.isIndex || seg.index < 0 || seg.index >= len(typed) {
			return nil, false
		}
		return typed[seg.index], true
	case []string:
		if !seg.isIndex || seg.index < 0 || seg.index >= len(typed) {
			return nil, false
		}
		return typed[seg.index], true
	default:
		return nil, false
	}
}

// Set returns a copy of r with the leaf at p replaced by value. Maps and lists
// along p are shallow-copied; everything else is shared with r. A path with a
// negative index addresses nothing and returns r unchanged.
func Set(r Record, p Path, value any) Record {
	if len(p) == 0 {
		return r
	}
	for _, seg := range p {
		if seg.isIndex && seg.index < 0 {
			return r
		}
	}
	updated := setIn(map[string]any(r), p, value)
	return Record(updated.(map[string]any))
}

func setIn(node any, p Path, value any) any {
	if len(p) == 0 {
		return value
	}
	seg := p[0]
	if seg.isIndex && !isMapNode(node) {
		if strs, ok := node.([]string); ok && len(p) == 1 {
			if s, ok := value.(string); ok {
				out := append([]string(nil), strs...)
				for len(out) <= seg.index {
					out = append(out, "")
				}
				out[seg.index] = s
				return out
			}
		}
		list := copyList(node)
		for len(list) <= seg.index {
			list = append(list, nil)
		}
		list[seg.index] = setIn(list[seg.index], p[1:], value)
		return list
	}
	// An index landing on a map addresses its digit key.
	m := copyMap(node)
	key := seg.Name()
	m[key] = setIn(m[key], p[1:], value)
	return m
}

func isMapNode(node any) bool {
	switch node.(type) {
	case map[string]any, Record:
		return true
	}
	return false
}

func copyMap(node any) map[string]any {
	var src map[string]any
	switch typed := node.(type) {
	case map[string]any:
		src = typed
	case Record:
		src = typed
	}
	out := make(map[string]any, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	return out
}

func copyList(node any) []any {
	switch typed := node.(type) {
	case []any:
		return append([]any(nil), typed...)
	case []string:
		out := make([]any, len(typed))
		for i, s := range typed {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}
