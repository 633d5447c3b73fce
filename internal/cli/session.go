package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chazuruo/pdeck/internal/catalog"
	"github.com/chazuruo/pdeck/internal/config"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
	"github.com/chazuruo/pdeck/internal/logging"
	"github.com/chazuruo/pdeck/internal/remote"
)

// buildVersion is reported in the User-Agent header.
var buildVersion = "dev"

// session bundles what a command needs to talk to the prompt service.
type session struct {
	cfg    *config.Config
	store  *catalog.Store
	client *remote.Client
	logger *slog.Logger
	closer io.Closer
}

// Close releases the log file, if any.
func (s *session) Close() error {
	return s.closer.Close()
}

// openSession loads config, builds the client and store, and, when load is
// set, fetches the catalog. logTo receives logs when no log file is configured.
func openSession(ctx context.Context, logTo io.Writer, load bool) (*session, error) {
	cfg, err := config.LoadFrom(globalConfigPath())
	if err != nil {
		return nil, configLoadError(err)
	}
	if server := globalServer(); server != "" {
		cfg.Remote.BaseURL = strings.TrimSpace(server)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --server: %w", err)
		}
	}

	logger, closer, err := logging.New(cfg.Log, logTo)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	timeout, err := cfg.Remote.TimeoutDuration()
	if err != nil {
		closer.Close()
		return nil, err
	}

	client := remote.NewClient(cfg.Remote.BaseURL, timeout)
	client.SetLogger(logger)
	client.SetUserAgent(userAgent(cfg.Remote.UserAgent))

	store, err := catalog.New(client, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	s := &session{cfg: cfg, store: store, client: client, logger: logger, closer: closer}
	if load {
		if err := store.Load(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load catalog from %s: %w", client.BaseURL(), err)
		}
	}
	return s, nil
}

// configLoadError points the user at the fix for the common config failures.
func configLoadError(err error) error {
	ce, ok := pdeckerrors.AsConfigError(err)
	switch {
	case !ok:
		return fmt.Errorf("failed to load config: %w", err)
	case pdeckerrors.IsNotFound(err):
		return fmt.Errorf("no config file at %s; run 'pdeck init' to create one: %w", ce.Path, err)
	case pdeckerrors.IsIO(err):
		return fmt.Errorf("cannot read config file %s; check its permissions: %w", ce.Path, err)
	}
	return fmt.Errorf("failed to load config: %w", err)
}

func userAgent(configured string) string {
	if configured == "" || configured == config.DefaultUserAgent {
		return config.DefaultUserAgent + "/" + buildVersion
	}
	return configured
}
