package handlers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/util/checksum"
)

// fakeCloud is an in-memory undercloud.
type fakeCloud struct {
	stack  *openstack.Stack
	events []openstack.Event
	nodes  []*openstack.Node
	stats  openstack.HypervisorStats
	intro  map[string]openstack.IntrospectionStatus
	images map[string]*openstack.Image

	transitions []string
}

func (f *fakeCloud) GetStack(_ context.Context, _ string) (*openstack.Stack, error) {
	return f.stack, nil
}

func (f *fakeCloud) ListEvents(_ context.Context, _ string, opts openstack.EventListOpts) ([]openstack.Event, error) {
	start := 0
	for i, ev := range f.events {
		if ev.ID == opts.Marker {
			start = i + 1
		}
	}
	return f.events[start:], nil
}

func (f *fakeCloud) LatestEvent(_ context.Context, _ string) (*openstack.Event, error) {
	if len(f.events) == 0 {
		return nil, nil
	}
	return &f.events[len(f.events)-1], nil
}

func (f *fakeCloud) CreateStack(_ context.Context, _ openstack.StackOpts) (string, error) {
	return "stack-id", nil
}

func (f *fakeCloud) UpdateStack(_ context.Context, _ *openstack.Stack, _ openstack.StackOpts) error {
	return nil
}

func (f *fakeCloud) FindNetworkID(_ context.Context, _ string) (string, error) {
	return "net-1", nil
}

func (f *fakeCloud) HypervisorStatistics(_ context.Context) (openstack.HypervisorStats, error) {
	return f.stats, nil
}

func (f *fakeCloud) ListNodes(_ context.Context, opts openstack.NodeListOpts) ([]openstack.Node, error) {
	var out []openstack.Node
	for _, n := range f.nodes {
		if opts.Associated != nil && n.Associated() != *opts.Associated {
			continue
		}
		if opts.Maintenance != nil && n.Maintenance != *opts.Maintenance {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeCloud) GetNode(_ context.Context, id string) (*openstack.Node, error) {
	for _, n := range f.nodes {
		if n.UUID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCloud) SetProvisionState(_ context.Context, id, transition string) error {
	f.transitions = append(f.transitions, id+":"+transition)
	for _, n := range f.nodes {
		if n.UUID != id {
			continue
		}
		switch transition {
		case openstack.TransitionManage:
			n.ProvisionState = openstack.StateManageable
		case openstack.TransitionProvide:
			n.ProvisionState = openstack.StateAvailable
		}
	}
	return nil
}

func (f *fakeCloud) StartIntrospection(_ context.Context, _ string) error {
	return nil
}

func (f *fakeCloud) GetIntrospectionStatus(_ context.Context, id string) (openstack.IntrospectionStatus, error) {
	return f.intro[id], nil
}

func (f *fakeCloud) FindImage(_ context.Context, name string) (*openstack.Image, error) {
	for _, img := range f.images {
		if img.Name == name {
			return img, nil
		}
	}
	return nil, nil
}

func (f *fakeCloud) GetImage(_ context.Context, id string) (*openstack.Image, error) {
	return f.images[id], nil
}

func (f *fakeCloud) CreateImage(_ context.Context, opts openstack.ImageOpts) (*openstack.Image, error) {
	if f.images == nil {
		f.images = map[string]*openstack.Image{}
	}
	img := &openstack.Image{ID: "img-" + opts.Name, Name: opts.Name, Properties: opts.Properties}
	f.images[img.ID] = img
	return img, nil
}

func (f *fakeCloud) UploadImageData(_ context.Context, id, path string) error {
	sum, err := checksum.File(path)
	if err != nil {
		return err
	}
	f.images[id].Checksum = sum
	return nil
}

func (f *fakeCloud) RenameImage(_ context.Context, id, name string) error {
	f.images[id].Name = name
	return nil
}

func testTimeouts() *config.Timeouts {
	return &config.Timeouts{
		StackPollInterval:         time.Millisecond,
		ProvisionPollAttempts:     3,
		ProvisionPollInterval:     time.Millisecond,
		IntrospectionPollAttempts: 3,
		IntrospectionPollInterval: time.Millisecond,
	}
}

// testConfig returns a configuration as Load would produce it, with every
// file under a temporary directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Templates:       dir,
		PasswordsFile:   dir + "/passwords",
		OutputDir:       dir,
		EnvironmentFile: dir + "/overcloud-env.json",
		KnownHostsFile:  dir + "/known_hosts",
		Auth:            config.Auth{URL: "http://192.0.2.1:5000/v2.0"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// useFakes replaces the factories with fakes and captures output. The
// originals are restored when the test ends.
func useFakes(t *testing.T, cfg *config.Config, cloud *fakeCloud) *bytes.Buffer {
	t.Helper()
	origStdout := stdout
	origLoad := loadConfigFile
	origTimeouts := loadTimeouts
	origCloud := newCloudClient
	origTTY := isInteractiveTTY
	t.Cleanup(func() {
		stdout = origStdout
		loadConfigFile = origLoad
		loadTimeouts = origTimeouts
		newCloudClient = origCloud
		isInteractiveTTY = origTTY
	})

	var out bytes.Buffer
	stdout = &out
	isInteractiveTTY = func() bool { return false }
	loadConfigFile = func(_ string) (*config.Config, error) { return cfg, nil }
	loadTimeouts = testTimeouts
	newCloudClient = func(_ *config.Config, _ *config.Timeouts) cloudAPI { return cloud }
	return &out
}
