package config

// Default values applied by Load.
const (
	DefaultFilename        = "overcloud.yaml"
	DefaultStackName       = "overcloud"
	DefaultTemplates       = "/usr/share/openstack-tripleo-heat-templates/"
	DefaultTimeoutMinutes  = 240
	DefaultLibvirtType     = "kvm"
	DefaultEnvironmentFile = "~/overcloud-env.json"
	DefaultCtlplaneNetwork = "ctlplane"
	DefaultKnownHostsFile  = "~/.ssh/known_hosts"
	DefaultTunnelIDRanges  = "1:1000"
	DefaultVNIRanges       = "1:1000"
	DefaultRegMethod       = "satellite"
	DefaultAuthInterface   = "public"
	DefaultUserDomain      = "Default"
	DefaultProjectDomain   = "Default"
	DefaultImageBackend    = ImageBackendGlance
)

// Image store backends.
const (
	ImageBackendGlance = "glance"
	ImageBackendS3     = "s3"
)

// Config is the deploy configuration file.
type Config struct {
	Stack            string       `yaml:"stack"`
	Templates        string       `yaml:"templates"`
	TimeoutMinutes   int          `yaml:"timeout"`
	Scale            Scale        `yaml:"scale"`
	Flavors          Flavors      `yaml:"flavors"`
	Neutron          Neutron      `yaml:"neutron"`
	NTPServer        string       `yaml:"ntp_server"`
	LibvirtType      string       `yaml:"libvirt_type"`
	NoProxy          string       `yaml:"no_proxy"`
	EnvironmentFiles []string     `yaml:"environment_files"`
	Registration     Registration `yaml:"registration"`

	PasswordsFile   string `yaml:"passwords_file"`
	EnvironmentFile string `yaml:"environment_file"`
	OutputDir       string `yaml:"output_dir"`
	KnownHostsFile  string `yaml:"known_hosts_file"`
	CtlplaneNetwork string `yaml:"ctlplane_network"`

	Auth       Auth       `yaml:"auth"`
	Endpoints  Endpoints  `yaml:"endpoints"`
	ImageStore ImageStore `yaml:"image_store"`
}

// Scale holds requested role counts. A nil field means "not requested":
// the existing stack value or the static default applies.
type Scale struct {
	Control      *int `yaml:"control"`
	Compute      *int `yaml:"compute"`
	CephStorage  *int `yaml:"ceph_storage"`
	BlockStorage *int `yaml:"block_storage"`
	SwiftStorage *int `yaml:"swift_storage"`
}

// Stack parameter names for role counts.
const (
	ControllerCount    = "ControllerCount"
	ComputeCount       = "ComputeCount"
	CephStorageCount   = "CephStorageCount"
	BlockStorageCount  = "BlockStorageCount"
	ObjectStorageCount = "ObjectStorageCount"
)

// Overrides returns the requested counts keyed by stack parameter name.
func (s Scale) Overrides() map[string]int {
	out := make(map[string]int)
	for param, v := range s.byParam() {
		if v != nil {
			out[param] = *v
		}
	}
	return out
}

func (s Scale) byParam() map[string]*int {
	return map[string]*int{
		ControllerCount:    s.Control,
		ComputeCount:       s.Compute,
		CephStorageCount:   s.CephStorage,
		BlockStorageCount:  s.BlockStorage,
		ObjectStorageCount: s.SwiftStorage,
	}
}

// Flavors names the compute flavor per role.
type Flavors struct {
	Control      string `yaml:"control"`
	Compute      string `yaml:"compute"`
	CephStorage  string `yaml:"ceph_storage"`
	BlockStorage string `yaml:"block_storage"`
	SwiftStorage string `yaml:"swift_storage"`
}

// Neutron holds the (legacy) networking knobs passed to the stack.
type Neutron struct {
	PublicInterface   string `yaml:"public_interface"`
	BridgeMappings    string `yaml:"bridge_mappings"`
	FlatNetworks      string `yaml:"flat_networks"`
	PhysicalBridge    string `yaml:"physical_bridge"`
	NetworkType       string `yaml:"network_type"`
	TunnelTypes       string `yaml:"tunnel_types"`
	TunnelIDRanges    string `yaml:"tunnel_id_ranges"`
	VNIRanges         string `yaml:"vni_ranges"`
	DisableTunneling  bool   `yaml:"disable_tunneling"`
	NetworkVLANRanges string `yaml:"network_vlan_ranges"`
	MechanismDrivers  string `yaml:"mechanism_drivers"`
}

// Registration configures RHEL registration of the overcloud nodes.
type Registration struct {
	Enabled       bool   `yaml:"enabled"`
	Method        string `yaml:"method"`
	Org           string `yaml:"org"`
	Force         bool   `yaml:"force"`
	SatURL        string `yaml:"sat_url"`
	ActivationKey string `yaml:"activation_key"`
}

// Auth holds identity credentials. Token skips password authentication.
type Auth struct {
	URL           string `yaml:"url"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	ProjectName   string `yaml:"project_name"`
	UserDomain    string `yaml:"user_domain"`
	ProjectDomain string `yaml:"project_domain"`
	Region        string `yaml:"region"`
	Interface     string `yaml:"interface"`
	Token         string `yaml:"token"`
}

// Endpoints overrides service catalog lookups.
type Endpoints struct {
	Orchestration string `yaml:"orchestration"`
	Baremetal     string `yaml:"baremetal"`
	Introspection string `yaml:"introspection"`
	Compute       string `yaml:"compute"`
	Network       string `yaml:"network"`
	Image         string `yaml:"image"`
}

// ImageStore selects where overcloud images are uploaded. The bucket
// settings apply to the s3 backend only.
type ImageStore struct {
	Backend      string `yaml:"backend"`
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}
