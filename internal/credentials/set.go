package credentials

import (
	"bytes"
	"strings"
)

// Set is an insertion-ordered collection of named secrets.
type Set struct {
	order  []string
	values map[string]string
}

func newSet() *Set {
	return &Set{values: make(map[string]string)}
}

// Get returns the value for name.
func (s *Set) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.order)
}

func (s *Set) put(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	s.values[name] = value
}

// parseSet reads NAME=value lines. Blank lines are skipped and the value
// is everything after the first '='.
func parseSet(data []byte) *Set {
	s := newSet()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		name, value, _ := strings.Cut(line, "=")
		s.put(name, value)
	}
	return s
}

func (s *Set) marshal() []byte {
	var buf bytes.Buffer
	for _, name := range s.order {
		buf.WriteString(name)
		buf.WriteByte('=')
		buf.WriteString(s.values[name])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
