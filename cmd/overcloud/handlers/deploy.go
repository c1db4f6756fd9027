package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/credentials"
	"github.com/imamik/overcloud/internal/deploy"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/waiter"
)

// DeployOptions override configuration values from the command line.
// Zero values and nil counts leave the configuration unchanged.
type DeployOptions struct {
	Stack            string
	Templates        string
	TimeoutMinutes   int
	EnvironmentFiles []string
	NTPServer        string

	Control      *int
	Compute      *int
	CephStorage  *int
	BlockStorage *int
	SwiftStorage *int
}

func (o DeployOptions) apply(cfg *config.Config) {
	if o.Stack != "" {
		cfg.Stack = o.Stack
	}
	if o.Templates != "" {
		cfg.Templates = o.Templates
	}
	if o.TimeoutMinutes > 0 {
		cfg.TimeoutMinutes = o.TimeoutMinutes
	}
	if o.NTPServer != "" {
		cfg.NTPServer = o.NTPServer
	}
	cfg.EnvironmentFiles = append(cfg.EnvironmentFiles, o.EnvironmentFiles...)

	setCount(&cfg.Scale.Control, o.Control)
	setCount(&cfg.Scale.Compute, o.Compute)
	setCount(&cfg.Scale.CephStorage, o.CephStorage)
	setCount(&cfg.Scale.BlockStorage, o.BlockStorage)
	setCount(&cfg.Scale.SwiftStorage, o.SwiftStorage)
}

func setCount(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

// deployer runs one deployment.
type deployer interface {
	Deploy(ctx context.Context) (*deploy.Result, error)
}

// newDeployer creates the deployment runner (for testing injection).
var newDeployer = func(api cloudAPI, cfg *config.Config, store *credentials.Store, t *config.Timeouts, onEvents func([]openstack.Event)) deployer {
	d := deploy.NewDeployer(api, cfg, store, t)
	d.OnEvents = onEvents
	return d
}

// Deploy creates or updates the overcloud stack and writes the RC file.
func Deploy(ctx context.Context, configPath string, opts DeployOptions) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	opts.apply(s.cfg)
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var onEvents func([]openstack.Event)
	if logr.FromContextOrDiscard(ctx).V(1).Enabled() {
		onEvents = func(events []openstack.Event) {
			printf("%s", waiter.FormatEvents(events))
		}
	}

	store := newCredentialStore(config.ExpandPath(s.cfg.PasswordsFile))
	res, err := newDeployer(s.api, s.cfg, store, s.timeouts, onEvents).Deploy(ctx)
	if err != nil {
		return err
	}

	printf("\n")
	printRow("Overcloud Endpoint:", res.Endpoint, okStyle)
	printRow("RC file:", res.RCPath, dimStyle)
	printRow("Tempest deployer input:", res.TempestPath, dimStyle)
	printf("%s\n", styled(okStyle, "Overcloud Deployed"))
	return nil
}
