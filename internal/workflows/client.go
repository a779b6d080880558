package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/kahu/internal/audit"
	"github.com/PolarWolf314/kahu/internal/cache"
	"github.com/PolarWolf314/kahu/internal/configs"
	kerrors "github.com/PolarWolf314/kahu/internal/errors"
	logger "github.com/PolarWolf314/kahu/internal/logging"
	"github.com/PolarWolf314/kahu/internal/records"
	"github.com/PolarWolf314/kahu/internal/secrets"
	"github.com/PolarWolf314/kahu/internal/storage"
)

// batchConcurrency bounds how many files of one batch are encrypted and
// transferred at once.
const batchConcurrency = 4

// Deps are the collaborators of a Client.
type Deps struct {
	Objects storage.Store
	Records *records.Store
	Cache   cache.Store
	Session *cache.Session
	Limits  configs.Limits
	Logger  logger.Logger
	Audit   *audit.Log

	// Now defaults to time.Now.
	Now func() time.Time
	// Generate defaults to secrets.GenerateIdentity.
	Generate func() (*secrets.GeneratedIdentity, error)
}

// Client runs kahu workflows against explicitly injected collaborators.
// It holds no key material itself; keys are passed to each operation.
type Client struct {
	objects  storage.Store
	records  *records.Store
	cache    cache.Store
	session  *cache.Session
	limits   configs.Limits
	log      logger.Logger
	audit    *audit.Log
	now      func() time.Time
	generate func() (*secrets.GeneratedIdentity, error)
}

// New validates deps and returns a Client.
func New(deps Deps) (*Client, error) {
	var missing []string
	if deps.Objects == nil {
		missing = append(missing, "object store")
	}
	if deps.Records == nil {
		missing = append(missing, "record store")
	}
	if deps.Cache == nil {
		missing = append(missing, "local cache")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrMissingConfig, strings.Join(missing, ", "))
	}
	if err := deps.Limits.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		objects:  deps.Objects,
		records:  deps.Records,
		cache:    deps.Cache,
		session:  deps.Session,
		limits:   deps.Limits,
		log:      deps.Logger,
		audit:    deps.Audit,
		now:      deps.Now,
		generate: deps.Generate,
	}
	if c.session == nil {
		s, err := cache.NewSession(cache.DefaultSessionSize)
		if err != nil {
			return nil, err
		}
		c.session = s
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.generate == nil {
		c.generate = secrets.GenerateIdentity
	}
	return c, nil
}

// Now returns the client's clock reading.
func (c *Client) Now() time.Time {
	return c.now()
}

// Account is an account ID together with its unlocked identity.
type Account struct {
	ID       string
	Identity *secrets.Identity
}

func (a Account) validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: account.id", kerrors.ErrMissingConfig)
	}
	if a.Identity == nil || a.Identity.PrivateKey == nil || a.Identity.PublicKey == nil {
		return kerrors.ErrIdentityNotFound
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", kerrors.ErrStorage, op, err)
}
