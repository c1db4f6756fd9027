package credentials

// Canonical credential names.
const (
	AdminPassword           = "OVERCLOUD_ADMIN_PASSWORD"
	AdminToken              = "OVERCLOUD_ADMIN_TOKEN"
	CeilometerPassword      = "OVERCLOUD_CEILOMETER_PASSWORD"
	CeilometerSecret        = "OVERCLOUD_CEILOMETER_SECRET"
	CinderPassword          = "OVERCLOUD_CINDER_PASSWORD"
	DemoPassword            = "OVERCLOUD_DEMO_PASSWORD"
	GlancePassword          = "OVERCLOUD_GLANCE_PASSWORD"
	HeatPassword            = "OVERCLOUD_HEAT_PASSWORD"
	HeatStackDomainPassword = "OVERCLOUD_HEAT_STACK_DOMAIN_PASSWORD"
	NeutronPassword         = "OVERCLOUD_NEUTRON_PASSWORD"
	NovaPassword            = "OVERCLOUD_NOVA_PASSWORD"
	SwiftHash               = "OVERCLOUD_SWIFT_HASH"
	SwiftPassword           = "OVERCLOUD_SWIFT_PASSWORD"
)

const (
	// DefaultFile is the credential file written in the working directory.
	DefaultFile = "tripleo-overcloud-passwords"

	// MinLength is the length of every generated secret.
	MinLength = 25

	// passwordCharset leaves out characters that are easy to misread.
	passwordCharset = "2346789ABCDEFGHJKMNPRTUVWXYZabcdefghjkmnpqrstuvwxyz"
)

// Names lists every credential generated for a deployment, in the order
// they are appended to a new file.
var Names = []string{
	AdminPassword,
	AdminToken,
	CeilometerPassword,
	CeilometerSecret,
	CinderPassword,
	DemoPassword,
	GlancePassword,
	HeatPassword,
	HeatStackDomainPassword,
	NeutronPassword,
	NovaPassword,
	SwiftHash,
	SwiftPassword,
}

// serviceParameters maps stack parameter names to the credential feeding them.
var serviceParameters = []struct {
	param string
	name  string
}{
	{"AdminPassword", AdminPassword},
	{"AdminToken", AdminToken},
	{"CeilometerPassword", CeilometerPassword},
	{"CeilometerMeteringSecret", CeilometerSecret},
	{"CinderPassword", CinderPassword},
	{"GlancePassword", GlancePassword},
	{"HeatPassword", HeatPassword},
	{"HeatStackDomainAdminPassword", HeatStackDomainPassword},
	{"NeutronPassword", NeutronPassword},
	{"NovaPassword", NovaPassword},
	{"SwiftHashSuffix", SwiftHash},
	{"SwiftPassword", SwiftPassword},
}

// IsCanonical reports whether name is one of Names.
func IsCanonical(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
