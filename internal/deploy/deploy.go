package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/overcloud/internal/admission"
	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/credentials"
	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/render"
	"github.com/imamik/overcloud/internal/util/knownhosts"
	"github.com/imamik/overcloud/internal/waiter"
)

// Stack actions as reported in stack events.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
)

// Function variables for test injection.
var (
	now             = time.Now
	newUUID         = uuid.NewUUID
	cephxKey        = credentials.CephxKey
	removeKnownHost = knownhosts.Remove
)

// API is the part of the undercloud services a deployment uses.
type API interface {
	waiter.StackAPI
	admission.Inventory
	admission.HypervisorStatsGetter
	LatestEvent(ctx context.Context, stack string) (*openstack.Event, error)
	CreateStack(ctx context.Context, opts openstack.StackOpts) (string, error)
	UpdateStack(ctx context.Context, stack *openstack.Stack, opts openstack.StackOpts) error
	FindNetworkID(ctx context.Context, name string) (string, error)
}

// Deployer runs overcloud deployments.
type Deployer struct {
	api      API
	cfg      *config.Config
	creds    *credentials.Store
	timeouts *config.Timeouts

	// OnEvents receives stack events while waiting, if set.
	OnEvents func([]openstack.Event)
}

// NewDeployer creates a Deployer. cfg must have been validated.
func NewDeployer(api API, cfg *config.Config, creds *credentials.Store, timeouts *config.Timeouts) *Deployer {
	return &Deployer{api: api, cfg: cfg, creds: creds, timeouts: timeouts}
}

// Result describes a finished deployment.
type Result struct {
	Stack    *openstack.Stack
	Created  bool
	Endpoint string
	RCPath   string
	// TempestPath is the tempest deployer input written next to the RC file.
	TempestPath string
}

// Deploy creates the stack if it does not exist and updates it otherwise.
// It returns once the stack action has completed.
func (d *Deployer) Deploy(ctx context.Context) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("stack", d.cfg.Stack)

	stack, err := d.api.GetStack(ctx, d.cfg.Stack)
	if err != nil {
		return nil, err
	}
	if stack == nil {
		log.Info("No stack found, will be doing a stack create")
	} else {
		log.Info("Stack found, will be doing a stack update")
	}

	if err := admission.CheckHypervisorStats(ctx, d.api, admission.Requirements{Nodes: 1}); err != nil {
		return nil, fmt.Errorf("expected hypervisor stats not met: %w", err)
	}

	params, err := d.Parameters(ctx, stack)
	if err != nil {
		return nil, err
	}
	if err := admission.CheckNodeCount(ctx, d.api, stack, d.cfg.Scale.Overrides(), admission.DefaultCounts); err != nil {
		return nil, err
	}

	opts, err := d.StackOpts(stack, params)
	if err != nil {
		return nil, err
	}

	action, marker := ActionCreate, ""
	log.Info("Deploying templates", "templates", d.cfg.Templates)
	if stack == nil {
		if _, err := d.api.CreateStack(ctx, opts); err != nil {
			return nil, err
		}
	} else {
		action = ActionUpdate
		latest, err := d.api.LatestEvent(ctx, stack.Name)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			marker = latest.ID
		}
		if err := d.api.UpdateStack(ctx, stack, opts); err != nil {
			return nil, err
		}
	}

	w := &waiter.StackWaiter{
		API:      d.api,
		Interval: d.timeouts.StackPollInterval,
		OnEvents: d.OnEvents,
	}
	res, err := w.Wait(ctx, d.cfg.Stack, marker, action)
	if err != nil {
		return nil, err
	}
	if !res.Outcome.Succeeded() {
		if stack == nil {
			return nil, &deployerr.DeploymentError{Msg: "Heat Stack create failed."}
		}
		return nil, &deployerr.DeploymentError{Msg: "Heat Stack update failed."}
	}

	return d.finish(ctx, stack == nil)
}

// StackOpts bundles the templates, environments and files of a stack
// create or update.
func (d *Deployer) StackOpts(stack *openstack.Stack, params map[string]any) (openstack.StackOpts, error) {
	templates := config.ExpandPath(d.cfg.Templates)
	files := fileSet{}

	tmpl, err := files.loadTemplate(filepath.Join(templates, TemplateName))
	if err != nil {
		return openstack.StackOpts{}, err
	}

	var envs []map[string]any
	addRegistry := false

	if stack == nil {
		path := config.ExpandPath(d.cfg.EnvironmentFile)
		if err := render.WriteEnvironment(path, render.DefaultRoleCounts()); err != nil {
			return openstack.StackOpts{}, err
		}
		env, err := files.loadEnvironment(path)
		if err != nil {
			return openstack.StackOpts{}, err
		}
		envs = append(envs, env)
		addRegistry = true
	}

	data, err := render.ParametersEnvironment(params)
	if err != nil {
		return openstack.StackOpts{}, err
	}
	env, err := files.parseEnvironment(data, templates)
	if err != nil {
		return openstack.StackOpts{}, err
	}
	envs = append(envs, env)

	if d.cfg.Registration.Enabled {
		regEnvs, err := d.registrationEnvironments(files, templates)
		if err != nil {
			return openstack.StackOpts{}, err
		}
		envs = append(envs, regEnvs...)
		addRegistry = true
	}

	for _, path := range d.cfg.EnvironmentFiles {
		env, err := files.loadEnvironment(config.ExpandPath(path))
		if err != nil {
			return openstack.StackOpts{}, err
		}
		envs = append(envs, env)
		addRegistry = true
	}

	if addRegistry {
		registry, err := files.loadEnvironment(filepath.Join(templates, ResourceRegistryName))
		if err != nil {
			return openstack.StackOpts{}, err
		}
		envs = append([]map[string]any{registry}, envs...)
	}

	merged, err := mergeEnvironments(envs)
	if err != nil {
		return openstack.StackOpts{}, err
	}

	return openstack.StackOpts{
		Name:           d.cfg.Stack,
		Template:       tmpl,
		Files:          files,
		Environment:    merged,
		TimeoutMinutes: d.cfg.TimeoutMinutes,
	}, nil
}

// registrationEnvironments returns the registry, the registration
// environment shipped with the templates and the generated user settings.
func (d *Deployer) registrationEnvironments(files fileSet, templates string) ([]map[string]any, error) {
	dir := filepath.Join(templates, RegistrationDir)
	var envs []map[string]any
	for _, name := range []string{registrationRegistryName, registrationEnvironmentName} {
		env, err := files.loadEnvironment(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}

	data, err := render.RegistrationEnvironment(d.cfg.Registration)
	if err != nil {
		return nil, err
	}
	env, err := files.parseEnvironment(data, dir)
	if err != nil {
		return nil, err
	}
	return append(envs, env), nil
}

// finish writes the files needed to use the deployed overcloud.
func (d *Deployer) finish(ctx context.Context, created bool) (*Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	stack, err := d.api.GetStack(ctx, d.cfg.Stack)
	if err != nil {
		return nil, err
	}
	if stack == nil {
		return nil, &deployerr.NotFoundError{Kind: "stack", Name: d.cfg.Stack}
	}
	out, ok := stack.Output("KeystoneURL")
	endpoint, _ := out.(string)
	if !ok || endpoint == "" {
		return nil, &deployerr.DeploymentError{Msg: "stack has no KeystoneURL output"}
	}

	password, err := d.creds.Get(credentials.AdminPassword)
	if err != nil {
		return nil, err
	}
	outDir := config.ExpandPath(d.cfg.OutputDir)
	rcPath, err := render.WriteRC(outDir, render.RCParams{
		StackName:     stack.Name,
		Endpoint:      endpoint,
		NoProxy:       d.cfg.NoProxy,
		AdminPassword: password,
	})
	if err != nil {
		return nil, err
	}
	tempestPath := filepath.Join(outDir, render.TempestDeployerInputFile)
	if err := render.WriteTempestDeployerInput(tempestPath); err != nil {
		return nil, err
	}

	if created {
		host, err := render.EndpointHost(endpoint)
		if err != nil {
			return nil, err
		}
		removed, err := removeKnownHost(config.ExpandPath(d.cfg.KnownHostsFile), host)
		switch {
		case errors.Is(err, os.ErrPermission):
			log.Info("Could not update known hosts", "host", host, "error", err.Error())
		case err != nil:
			return nil, err
		case removed > 0:
			log.V(1).Info("Removed stale host keys", "host", host, "entries", removed)
		}
	}

	return &Result{
		Stack:       stack,
		Created:     created,
		Endpoint:    endpoint,
		RCPath:      rcPath,
		TempestPath: tempestPath,
	}, nil
}
