package registry

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
)

// Catalog answers the server-level metadata questions discovery needs.
// Satisfied by mssql.Catalog.
type Catalog interface {
	OnlineDatabases(ctx context.Context, d mssql.Descriptor) ([]string, error)
	HasTable(ctx context.Context, d mssql.Descriptor, table string) (bool, error)
}

// systemDatabases are excluded from discovery, matched case-insensitively.
var systemDatabases = map[string]struct{}{
	"master": {},
	"tempdb": {},
	"model":  {},
	"msdb":   {},
}

// Discoverer builds registries by querying the server catalog with one
// credential set.
type Discoverer struct {
	catalog Catalog
	encrypt bool
}

// NewDiscoverer wires a catalog collaborator. encrypt is stamped onto every
// synthesized descriptor.
func NewDiscoverer(catalog Catalog, encrypt bool) *Discoverer {
	return &Discoverer{catalog: catalog, encrypt: encrypt}
}

func (d *Discoverer) descriptor(creds *credentials.Set, database string) mssql.Descriptor {
	return mssql.Descriptor{
		Server:   creds.Server,
		Port:     creds.Port,
		Driver:   creds.Driver,
		Database: database,
		User:     creds.User,
		Password: creds.Password,
		Encrypt:  d.encrypt,
	}
}

// Discover lists the online non-system databases reachable with the given
// credentials and builds the registry for them. The default entry aliases the
// preferred database when the credential set carries a hint (inserted as an
// explicit entry even if discovery did not return it), otherwise the first
// discovered database in catalog order.
func (d *Discoverer) Discover(ctx context.Context, creds *credentials.Set) (*Registry, error) {
	names, err := d.catalog.OnlineDatabases(ctx, d.descriptor(creds, ""))
	if err != nil {
		return nil, errors.Wrap(err, "[Discoverer.Discover] list online databases")
	}

	discovered := make([]string, 0, len(names))
	for _, name := range names {
		if _, system := systemDatabases[strings.ToLower(name)]; system {
			continue
		}
		discovered = append(discovered, name)
	}

	if len(discovered) == 0 && creds.PreferredDatabase == "" {
		return nil, errors.Wrapf(ErrNoDatabasesFound, "[Discoverer.Discover] server %s", creds.Server)
	}

	r := newRegistry()
	for _, name := range discovered {
		r.add(name, d.descriptor(creds, name))
	}

	defaultName := creds.PreferredDatabase
	if defaultName == "" {
		defaultName = discovered[0]
	}
	r.add(defaultName, d.descriptor(creds, defaultName))
	r.add(DefaultKey, d.descriptor(creds, defaultName))

	log.Debug().
		Str("server", creds.Server).
		Str("default", defaultName).
		Int("databases", len(discovered)).
		Msg("database registry built")
	return r, nil
}

// LocateTableOwner scans every online non-system database for a table with
// the given name and returns the single owning database. Databases that
// reject the catalog query (typically insufficient permission) are skipped.
func (d *Discoverer) LocateTableOwner(ctx context.Context, creds *credentials.Set, table string) (string, error) {
	names, err := d.catalog.OnlineDatabases(ctx, d.descriptor(creds, ""))
	if err != nil {
		return "", errors.Wrap(err, "[Discoverer.LocateTableOwner] list online databases")
	}

	var owners []string
	for _, name := range names {
		if _, system := systemDatabases[strings.ToLower(name)]; system {
			continue
		}
		found, err := d.catalog.HasTable(ctx, d.descriptor(creds, name), table)
		if err != nil {
			log.Debug().Err(err).Str("database", name).Msg("skipping database during table scan")
			continue
		}
		if found {
			owners = append(owners, name)
		}
	}

	switch len(owners) {
	case 0:
		return "", errors.Wrapf(ErrTableNotFound, "[Discoverer.LocateTableOwner] table %q", table)
	case 1:
		return owners[0], nil
	default:
		return "", &AmbiguousTableError{Table: table, Databases: owners}
	}
}
