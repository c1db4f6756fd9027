package credentials

import (
	"sync"

	"github.com/imamik/overcloud/internal/deployerr"
)

// Store hands out credentials from a file-backed set that is generated on
// first use and then held for the lifetime of the Store. Build one per
// process and pass it to every consumer.
type Store struct {
	path string

	once sync.Once
	set  *Set
	err  error
}

// NewStore returns a Store backed by the credential file at path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultFile
	}
	return &Store{path: path}
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() {
	s.once.Do(func() {
		s.set, s.err = Generate(s.path)
	})
}

// Get returns the secret for name. Unknown names fail with a
// ConfigurationError without touching the file.
func (s *Store) Get(name string) (string, error) {
	if !IsCanonical(name) {
		return "", deployerr.Configf("unknown credential %q", name)
	}
	s.load()
	if s.err != nil {
		return "", s.err
	}
	v, _ := s.set.Get(name)
	return v, nil
}

// Set returns the full credential set.
func (s *Store) Set() (*Set, error) {
	s.load()
	return s.set, s.err
}

// ServiceParameters returns the stack parameters fed by credentials.
func (s *Store) ServiceParameters() (map[string]string, error) {
	s.load()
	if s.err != nil {
		return nil, s.err
	}
	params := make(map[string]string, len(serviceParameters))
	for _, p := range serviceParameters {
		v, _ := s.set.Get(p.name)
		params[p.param] = v
	}
	return params, nil
}
