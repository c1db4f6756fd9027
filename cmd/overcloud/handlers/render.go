package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/credentials"
	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/render"
)

// RenderEnvironment writes the role count environment file to path.
func RenderEnvironment(_ context.Context, path string, counts render.RoleCounts) error {
	path = config.ExpandPath(path)
	if err := render.WriteEnvironment(path, counts); err != nil {
		return err
	}
	printf("%s\n", path)
	return nil
}

// RenderRC writes the overcloud RC file. Without an endpoint the
// KeystoneURL output of the configured stack is used.
func RenderRC(ctx context.Context, configPath, endpoint string) error {
	var cfg *config.Config
	if endpoint == "" {
		s, err := newSession(configPath)
		if err != nil {
			return err
		}
		cfg = s.cfg
		stack, err := s.api.GetStack(ctx, cfg.Stack)
		if err != nil {
			return err
		}
		if stack == nil {
			return &deployerr.NotFoundError{Kind: "stack", Name: cfg.Stack}
		}
		out, _ := stack.Output("KeystoneURL")
		endpoint, _ = out.(string)
		if endpoint == "" {
			return fmt.Errorf("stack %s has no KeystoneURL output", cfg.Stack)
		}
	} else {
		var err error
		if cfg, err = loadConfig(configPath); err != nil {
			return err
		}
	}

	password, err := newCredentialStore(config.ExpandPath(cfg.PasswordsFile)).Get(credentials.AdminPassword)
	if err != nil {
		return err
	}
	path, err := render.WriteRC(config.ExpandPath(cfg.OutputDir), render.RCParams{
		StackName:     cfg.Stack,
		Endpoint:      endpoint,
		NoProxy:       cfg.NoProxy,
		AdminPassword: password,
	})
	if err != nil {
		return err
	}
	printf("%s\n", path)
	return nil
}
