package config

import (
	"errors"
	"slices"
	"strings"

	"github.com/imamik/overcloud/internal/deployerr"
)

// Validate checks the configuration for inconsistent settings.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Stack == "" {
		errs = append(errs, deployerr.Configf("stack name must not be empty"))
	}
	if c.LibvirtType != "kvm" && c.LibvirtType != "qemu" {
		errs = append(errs, deployerr.Configf("libvirt_type must be kvm or qemu, got %q", c.LibvirtType))
	}
	if c.TimeoutMinutes < 0 {
		errs = append(errs, deployerr.Configf("timeout must not be negative"))
	}
	for param, v := range c.Scale.byParam() {
		if v != nil && *v < 0 {
			errs = append(errs, deployerr.Configf("%s must not be negative", param))
		}
	}
	if c.Scale.Control != nil && *c.Scale.Control > 1 && c.NTPServer == "" {
		errs = append(errs, deployerr.Configf("ntp_server is required when using multiple controllers (with HA)"))
	}

	switch c.ImageStore.Backend {
	case ImageBackendGlance:
	case ImageBackendS3:
		if c.ImageStore.Bucket == "" {
			errs = append(errs, deployerr.Configf("image_store.bucket is required with the s3 backend"))
		}
	default:
		errs = append(errs, deployerr.Configf("image_store.backend must be glance or s3, got %q", c.ImageStore.Backend))
	}

	if err := c.Neutron.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Registration.validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (n Neutron) validate() error {
	tunnelTypes := splitList(n.TunnelTypes)
	switch {
	case n.NetworkType == "vlan" && n.NetworkVLANRanges == "":
		return deployerr.Configf("neutron network VLAN ranges must be specified when the network type is set to VLAN")
	case n.NetworkType != "" && len(tunnelTypes) > 0:
		if !slices.Contains(tunnelTypes, n.NetworkType) {
			return deployerr.Configf("neutron network type must be in neutron tunnel types (%s)", n.TunnelTypes)
		}
	case !n.DisableTunneling:
		if n.NetworkType != "" && len(tunnelTypes) == 0 {
			return deployerr.Configf("neutron tunnel types must be specified when neutron network type is specified")
		}
		if len(tunnelTypes) > 0 && n.NetworkType == "" {
			return deployerr.Configf("neutron network type must be specified when neutron tunnel types is specified")
		}
	}
	return nil
}

func (r Registration) validate() error {
	if !r.Enabled {
		return nil
	}
	switch r.Method {
	case "satellite":
		if r.Org == "" || r.SatURL == "" || r.ActivationKey == "" {
			return deployerr.Configf("satellite registration requires org, sat_url and activation_key")
		}
	case "portal":
		if r.Org == "" || r.ActivationKey == "" {
			return deployerr.Configf("portal registration requires org and activation_key")
		}
	default:
		return deployerr.Configf("registration method must be satellite or portal, got %q", r.Method)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
