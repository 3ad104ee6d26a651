// Package registry maps logical database names onto full connection
// descriptors for one authenticated identity. A registry is built once per
// login by discovery against the server catalog and replaced wholesale on the
// next login; it is never partially mutated.
package registry

import (
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
)

// DefaultKey is the sentinel logical name that always aliases one of the
// concrete entries: the preferred database when the credential set carried a
// hint, otherwise the first discovered database.
const DefaultKey = "default"

// Registry is an immutable mapping from logical database name to connection
// descriptor. All entries share the same user/password/server/port/driver;
// only the database differs.
type Registry struct {
	entries map[string]mssql.Descriptor
	keys    []string // insertion order: default first, then discovery order
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[string]mssql.Descriptor)}
}

func (r *Registry) add(key string, d mssql.Descriptor) {
	if _, exists := r.entries[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.entries[key] = d
}

// Resolve looks up a logical database name. An empty name resolves the
// default entry. Pure lookup, no I/O.
func (r *Registry) Resolve(name string) (mssql.Descriptor, error) {
	if name == "" {
		name = DefaultKey
	}
	d, ok := r.entries[name]
	if !ok {
		return mssql.Descriptor{}, &UnknownDatabaseError{Requested: name, Known: r.Keys()}
	}
	return d, nil
}

// Keys returns every logical name in the registry: the default key first,
// then the concrete entries in discovery order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.keys))
	var hasDefault bool
	for _, k := range r.keys {
		if k == DefaultKey {
			hasDefault = true
			continue
		}
		keys = append(keys, k)
	}
	if hasDefault {
		keys = append([]string{DefaultKey}, keys...)
	}
	return keys
}

// Len reports the number of entries including the default alias.
func (r *Registry) Len() int {
	return len(r.keys)
}
