// Package handlers implements the business logic for CLI commands.
//
// Handlers are called by the command definitions in the commands package.
// Collaborators are created through package-level function variables so
// tests can replace them.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/imamik/overcloud/internal/baremetal"
	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/credentials"
	"github.com/imamik/overcloud/internal/deploy"
	"github.com/imamik/overcloud/internal/imagestore"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

// cloudAPI is every undercloud service the commands talk to.
type cloudAPI interface {
	deploy.API
	baremetal.API
	imagestore.GlanceAPI
}

// Factory function variables - replaced in tests.
var (
	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// loadConfigFile loads and validates the configuration file.
	loadConfigFile = config.Load

	// loadTimeouts reads poll intervals and budgets from the environment.
	loadTimeouts = config.LoadTimeouts

	// newCloudClient creates the undercloud API client.
	newCloudClient = func(cfg *config.Config, t *config.Timeouts) cloudAPI {
		return openstack.NewClient(cfg.Auth, cfg.Endpoints, openstack.WithTimeouts(t))
	}

	// newCredentialStore opens the password file.
	newCredentialStore = credentials.NewStore

	// newImageStore opens the configured image store and describes it.
	newImageStore = func(ctx context.Context, cfg *config.Config) (imagestore.Store, string, error) {
		if cfg.ImageStore.Backend == config.ImageBackendS3 {
			c, err := imagestore.NewClient(ctx, cfg.ImageStore)
			if err != nil {
				return nil, "", err
			}
			if err := c.EnsureBucket(ctx); err != nil {
				return nil, "", err
			}
			return c, "bucket " + c.Bucket(), nil
		}
		if err := checkEndpoint(cfg); err != nil {
			return nil, "", err
		}
		return imagestore.NewGlanceStore(newCloudClient(cfg, loadTimeouts())), "the image service", nil
	}

	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

// loadConfig loads the configuration at configPath. Without a path the
// default file is used when it exists, and built-in defaults otherwise.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" && fileExists(config.DefaultFilename) {
		configPath = config.DefaultFilename
	}
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// session bundles what most commands need.
type session struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	api      cloudAPI
}

func newSession(configPath string) (*session, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := checkEndpoint(cfg); err != nil {
		return nil, err
	}
	t := loadTimeouts()
	return &session{cfg: cfg, timeouts: t, api: newCloudClient(cfg, t)}, nil
}

func checkEndpoint(cfg *config.Config) error {
	if cfg.Auth.URL == "" && cfg.Endpoints == (config.Endpoints{}) {
		return errors.New("no identity endpoint configured: set auth.url in the config file or OS_AUTH_URL")
	}
	return nil
}
