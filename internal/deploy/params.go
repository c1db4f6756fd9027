package deploy

import (
	"context"
	"fmt"
	"maps"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
)

const defaultImage = "overcloud-full"

// StaticParameters are sent on every deployment.
var StaticParameters = map[string]any{
	"BlockStorageImage":           defaultImage,
	"CephStorageImage":            defaultImage,
	"CinderISCSIHelper":           "lioadm",
	"CloudName":                   "overcloud",
	"controllerImage":             defaultImage,
	"NeutronNetworkVLANRanges":    "datacentre:1:1000",
	"NovaImage":                   defaultImage,
	"OvercloudBlockStorageFlavor": "baremetal",
	"OvercloudCephStorageFlavor":  "baremetal",
	"OvercloudComputeFlavor":      "baremetal",
	"OvercloudControlFlavor":      "baremetal",
	"OvercloudSwiftStorageFlavor": "baremetal",
	"SwiftStorageImage":           defaultImage,
}

// NewStackParameters are only sent when the stack is created.
var NewStackParameters = map[string]any{
	"NovaComputeLibvirtType": "kvm",
}

// Parameters assembles the stack parameters for a deployment. stack is the
// existing stack, or nil when it will be created.
func (d *Deployer) Parameters(ctx context.Context, stack *openstack.Stack) (map[string]any, error) {
	params := maps.Clone(StaticParameters)
	if stack == nil {
		maps.Copy(params, NewStackParameters)
	}

	secrets, err := d.creds.ServiceParameters()
	if err != nil {
		return nil, err
	}
	for k, v := range secrets {
		params[k] = v
	}

	netID, err := d.api.FindNetworkID(ctx, d.cfg.CtlplaneNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to look up control plane network: %w", err)
	}
	params["NeutronControlPlaneID"] = netID
	params["DeployIdentifier"] = now().Unix()

	setOverrides(params, d.cfg)
	if stack == nil {
		setNewStackOverrides(params, d.cfg)
	}

	controllers, _ := params[config.ControllerCount].(int)
	if controllers > 1 {
		if d.cfg.NTPServer == "" {
			return nil, deployerr.Configf("ntp_server is required when using multiple controllers (with HA)")
		}
		params["NeutronL3HA"] = true
	} else {
		params["NeutronL3HA"] = false
	}
	params["NeutronAllowL3AgentFailover"] = false
	params["NeutronDhcpAgentsPerNetwork"] = dhcpAgentsPerNetwork(controllers)

	ceph, _ := params[config.CephStorageCount].(int)
	if stack == nil && ceph > 0 {
		fsid, err := newUUID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ceph cluster fsid: %w", err)
		}
		params["CephClusterFSID"] = fsid.String()
		for _, name := range []string{"CephMonKey", "CephAdminKey"} {
			key, err := cephxKey()
			if err != nil {
				return nil, err
			}
			params[name] = key
		}
	}
	return params, nil
}

func dhcpAgentsPerNetwork(controllers int) int {
	if controllers == 0 {
		return 1
	}
	return min(controllers, 3)
}

func setString(params map[string]any, name, value string) {
	if value != "" {
		params[name] = value
	}
}

// setOverrides copies the values set in the configuration that apply to
// both new and existing stacks.
func setOverrides(params map[string]any, cfg *config.Config) {
	n := cfg.Neutron
	setString(params, "NeutronPublicInterface", n.PublicInterface)
	setString(params, "NeutronBridgeMappings", n.BridgeMappings)
	setString(params, "NeutronFlatNetworks", n.FlatNetworks)
	setString(params, "HypervisorNeutronPhysicalBridge", n.PhysicalBridge)
	setString(params, "NeutronNetworkVLANRanges", n.NetworkVLANRanges)
	setString(params, "NeutronMechanismDrivers", n.MechanismDrivers)
	setString(params, "NtpServer", cfg.NTPServer)

	for param, count := range cfg.Scale.Overrides() {
		params[param] = count
	}

	f := cfg.Flavors
	setString(params, "OvercloudControlFlavor", f.Control)
	setString(params, "OvercloudComputeFlavor", f.Compute)
	setString(params, "OvercloudCephStorageFlavor", f.CephStorage)
	setString(params, "OvercloudBlockStorageFlavor", f.BlockStorage)
	setString(params, "OvercloudSwiftStorageFlavor", f.SwiftStorage)
}

// setNewStackOverrides copies the values that cannot change once the stack
// exists.
func setNewStackOverrides(params map[string]any, cfg *config.Config) {
	n := cfg.Neutron
	setString(params, "NeutronNetworkType", n.NetworkType)
	setString(params, "NeutronTunnelTypes", n.TunnelTypes)
	if n.TunnelIDRanges != "" {
		params["NeutronTunnelIdRanges"] = []string{n.TunnelIDRanges}
	}
	if n.VNIRanges != "" {
		params["NeutronVniRanges"] = []string{n.VNIRanges}
	}
	setString(params, "NovaComputeLibvirtType", cfg.LibvirtType)
	params["NeutronEnableTunnelling"] = !n.DisableTunneling
}
