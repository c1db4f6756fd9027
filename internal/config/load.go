package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imamik/overcloud/internal/deployerr"
)

// Load reads the configuration file at path. An empty path yields the
// defaults. OS_* environment variables override the auth section.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		// #nosec G304
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &deployerr.NotFoundError{Kind: "config file", Name: path}
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown keys.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, deployerr.Configf("failed to parse config: %v", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Stack, DefaultStackName)
	setDefault(&c.Templates, DefaultTemplates)
	if c.TimeoutMinutes == 0 {
		c.TimeoutMinutes = DefaultTimeoutMinutes
	}
	setDefault(&c.LibvirtType, DefaultLibvirtType)
	setDefault(&c.EnvironmentFile, DefaultEnvironmentFile)
	setDefault(&c.PasswordsFile, "tripleo-overcloud-passwords")
	setDefault(&c.OutputDir, ".")
	setDefault(&c.KnownHostsFile, DefaultKnownHostsFile)
	setDefault(&c.CtlplaneNetwork, DefaultCtlplaneNetwork)
	setDefault(&c.Neutron.TunnelIDRanges, DefaultTunnelIDRanges)
	setDefault(&c.Neutron.VNIRanges, DefaultVNIRanges)
	setDefault(&c.Registration.Method, DefaultRegMethod)
	setDefault(&c.ImageStore.Backend, DefaultImageBackend)
	setDefault(&c.Auth.Interface, DefaultAuthInterface)
	setDefault(&c.Auth.UserDomain, DefaultUserDomain)
	setDefault(&c.Auth.ProjectDomain, DefaultProjectDomain)
}

// ApplyEnv overrides auth settings and no_proxy from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	override := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	override(&c.Auth.URL, "OS_AUTH_URL")
	override(&c.Auth.Username, "OS_USERNAME")
	override(&c.Auth.Password, "OS_PASSWORD")
	override(&c.Auth.ProjectName, "OS_PROJECT_NAME", "OS_TENANT_NAME")
	override(&c.Auth.UserDomain, "OS_USER_DOMAIN_NAME")
	override(&c.Auth.ProjectDomain, "OS_PROJECT_DOMAIN_NAME")
	override(&c.Auth.Region, "OS_REGION_NAME")
	override(&c.Auth.Token, "OS_AUTH_TOKEN")
	if c.NoProxy == "" {
		c.NoProxy = getenv("no_proxy")
	}
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
