package credentials

import (
	"context"

	"github.com/pkg/errors"
)

// MaxStaticSets bounds the number of pre-provisioned credential blocks read
// from configuration (DB1..DB10).
const MaxStaticSets = 10

// StaticBlock is one pre-provisioned named credential set. Blocks carry their
// own database/user/password and share the server coordinates configured on
// StaticConfig.
type StaticBlock struct {
	Key      string
	Database string
	User     string
	Password string
}

// StaticConfig holds the bounded multi-tenant configuration: an ordered list
// of blocks plus the server/port/driver defaults they share.
type StaticConfig struct {
	Blocks []StaticBlock
	Server string
	Port   string
	Driver string
}

// StaticSource maps a principal onto one of the configured blocks:
// an explicit "db_key" claim wins, then a block whose database username
// matches the principal's declared "db_user", then the first block.
type StaticSource struct {
	config StaticConfig
}

func NewStaticSource(config StaticConfig) *StaticSource {
	return &StaticSource{config: config}
}

func (s *StaticSource) Resolve(ctx context.Context, principal Principal) (*Set, error) {
	if len(s.config.Blocks) == 0 {
		return nil, errors.Wrap(ErrNoConfiguredSets, "[StaticSource.Resolve]")
	}

	block := s.matchBlock(principal)
	return &Set{
		User:              block.User,
		Password:          block.Password,
		Server:            s.config.Server,
		Port:              s.config.Port,
		Driver:            s.config.Driver,
		PreferredDatabase: block.Database,
	}, nil
}

func (s *StaticSource) matchBlock(principal Principal) StaticBlock {
	if key := claimValue(principal.Claims, "db_key"); key != "" {
		for _, b := range s.config.Blocks {
			if b.Key == key {
				return b
			}
		}
	}
	if dbUser := claimValue(principal.Claims, "db_user"); dbUser != "" {
		for _, b := range s.config.Blocks {
			if b.User == dbUser {
				return b
			}
		}
	}
	return s.config.Blocks[0]
}

// Keys lists the configured block keys in order, for diagnostics.
func (s *StaticSource) Keys() []string {
	keys := make([]string, 0, len(s.config.Blocks))
	for _, b := range s.config.Blocks {
		keys = append(keys, b.Key)
	}
	return keys
}
