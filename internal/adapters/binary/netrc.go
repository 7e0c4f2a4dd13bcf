package binary

import (
	"os"
	"path/filepath"
	"strings"
)

// NetrcStore reads credentials from a netrc-style file keyed by machine.
type NetrcStore struct {
	machines map[string]netrcEntry
}

type netrcEntry struct {
	login    string
	password string
}

// LoadNetrc parses the netrc file at path. A missing file yields an empty
// store rather than an error.
func LoadNetrc(path string) (*NetrcStore, error) {
	store := &NetrcStore{machines: make(map[string]netrcEntry)}

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's credentials file
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}

	tokens := strings.Fields(string(data))
	var machine string
	var entry netrcEntry
	flush := func() {
		if machine != "" {
			store.machines[machine] = entry
		}
		machine = ""
		entry = netrcEntry{}
	}

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "machine":
			flush()
			if i+1 < len(tokens) {
				i++
				machine = tokens[i]
			}
		case "default":
			flush()
			machine = "*"
		case "login":
			if i+1 < len(tokens) {
				i++
				entry.login = tokens[i]
			}
		case "password":
			if i+1 < len(tokens) {
				i++
				entry.password = tokens[i]
			}
		}
	}
	flush()

	return store, nil
}

// DefaultNetrcPath returns ~/.netrc.
func DefaultNetrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".netrc")
}

// Lookup returns the credentials for host, falling back to the default entry.
func (s *NetrcStore) Lookup(host string) (string, string, bool) {
	if entry, ok := s.machines[host]; ok {
		return entry.login, entry.password, true
	}
	if entry, ok := s.machines["*"]; ok {
		return entry.login, entry.password, true
	}
	return "", "", false
}
