// Package access gates tool operations on a locally provisioned
// username-to-access-level mapping, loaded from a JSON file at startup.
package access

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Level is a user's provisioned database access level.
type Level string

const (
	LevelNone      Level = "none"
	LevelReadOnly  Level = "read_only"
	LevelReadWrite Level = "read_write"
)

// Operation classifies what a tool call wants to do to the database.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Mapping is one provisioned user entry.
type Mapping struct {
	Username string   `json:"keycloak_username"`
	Folders  []string `json:"folders"`
	DBUser   string   `json:"db_user"`
	Level    Level    `json:"db_access_level"`
}

type mappingFile struct {
	Users []Mapping `json:"users"`
}

// Store answers authorization questions for provisioned users. Users absent
// from the mapping are denied everything.
type Store struct {
	byUser map[string]Mapping
}

// Load reads the mapping file. A missing file yields an empty store so the
// gateway can run with authorization effectively disabled-by-denial for
// unknown users; any other read or parse failure is an error.
func Load(path string) (*Store, error) {
	store := &Store{byUser: make(map[string]Mapping)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("user mapping file not found, no users provisioned")
			return store, nil
		}
		return nil, errors.Wrap(err, "[access.Load] read mapping file")
	}

	var file mappingFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "[access.Load] parse mapping file")
	}
	for _, m := range file.Users {
		if m.Level == "" {
			m.Level = LevelReadOnly
		}
		store.byUser[m.Username] = m
	}

	log.Info().Str("path", path).Int("users", len(store.byUser)).Msg("user access mappings loaded")
	return store, nil
}

// NewStore builds a store from in-memory mappings (primarily for testing).
func NewStore(mappings ...Mapping) *Store {
	store := &Store{byUser: make(map[string]Mapping, len(mappings))}
	for _, m := range mappings {
		store.byUser[m.Username] = m
	}
	return store
}

// Lookup returns the mapping for a username.
func (s *Store) Lookup(username string) (Mapping, bool) {
	m, ok := s.byUser[username]
	return m, ok
}

// Authorize reports whether the user may perform the operation.
func (s *Store) Authorize(username string, op Operation) bool {
	m, ok := s.byUser[username]
	if !ok {
		return false
	}
	switch op {
	case OpRead:
		return m.Level == LevelReadOnly || m.Level == LevelReadWrite
	case OpWrite, OpDelete:
		return m.Level == LevelReadWrite
	}
	return false
}
