package render

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/util/fileutil"
)

// RCParams are the inputs of the overcloud RC file.
type RCParams struct {
	StackName     string
	Endpoint      string
	NoProxy       string
	AdminPassword string
}

// RC renders a shell-sourceable file of export statements. The endpoint
// host is appended to no_proxy.
func RC(p RCParams) (string, error) {
	host, err := EndpointHost(p.Endpoint)
	if err != nil {
		return "", err
	}
	noProxy := host
	if p.NoProxy != "" {
		noProxy = p.NoProxy + "," + host
	}

	vars := [][2]string{
		{"NOVA_VERSION", "1.1"},
		{"COMPUTE_API_VERSION", "1.1"},
		{"OS_USERNAME", "admin"},
		{"OS_TENANT_NAME", "admin"},
		{"OS_NO_CACHE", "True"},
		{"OS_CLOUDNAME", p.StackName},
		{"no_proxy", noProxy},
		{"OS_PASSWORD", p.AdminPassword},
		{"OS_AUTH_URL", p.Endpoint},
	}

	var b strings.Builder
	for _, kv := range vars {
		fmt.Fprintf(&b, "export %s=%s\n", kv[0], kv[1])
	}
	return b.String(), nil
}

// RCPath is the RC file location for a stack inside dir.
func RCPath(dir, stackName string) string {
	return filepath.Join(dir, stackName+"rc")
}

// WriteRC renders the RC file into dir and returns its path. The file holds
// the admin password and is created with mode 0600.
func WriteRC(dir string, p RCParams) (string, error) {
	content, err := RC(p)
	if err != nil {
		return "", err
	}
	path := RCPath(dir, p.StackName)
	if err := fileutil.WriteAtomic(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write rc file: %w", err)
	}
	return path, nil
}

// EndpointHost extracts the host name of an endpoint URL.
func EndpointHost(endpoint string) (string, error) {
	if endpoint == "" {
		return "", deployerr.Configf("overcloud endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return "", deployerr.Configf("invalid overcloud endpoint %q", endpoint)
	}
	return u.Hostname(), nil
}
