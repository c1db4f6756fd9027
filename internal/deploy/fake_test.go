package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	. "github.com/onsi/gomega"

	"github.com/imamik/overcloud/internal/platform/openstack"
)

// fakeAPI is an in-memory undercloud. A create or update appends an
// in-progress event and a terminal event carrying resultStatus.
type fakeAPI struct {
	mu sync.Mutex

	stack    *openstack.Stack
	events   []openstack.Event
	nodes    []openstack.Node
	stats    openstack.HypervisorStats
	endpoint string
	// failAction makes the next create or update end in <ACTION>_FAILED.
	failAction bool

	created *openstack.StackOpts
	updated *openstack.StackOpts
	markers []string
}

func newFakeAPI(nodes int) *fakeAPI {
	f := &fakeAPI{
		stats:    openstack.HypervisorStats{Count: nodes, MemoryMB: 8192 * nodes, VCPUs: 4 * nodes},
		endpoint: "http://192.0.2.10:5000/v2.0/",
	}
	for i := range nodes {
		f.nodes = append(f.nodes, openstack.Node{UUID: string(rune('a' + i)), ProvisionState: openstack.StateAvailable})
	}
	return f
}

func (f *fakeAPI) GetStack(_ context.Context, name string) (*openstack.Stack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stack == nil || f.stack.Name != name {
		return nil, nil
	}
	s := *f.stack
	return &s, nil
}

func (f *fakeAPI) ListEvents(_ context.Context, _ string, opts openstack.EventListOpts) ([]openstack.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = append(f.markers, opts.Marker)
	start := 0
	for i, ev := range f.events {
		if ev.ID == opts.Marker {
			start = i + 1
		}
	}
	return append([]openstack.Event(nil), f.events[start:]...), nil
}

func (f *fakeAPI) LatestEvent(context.Context, string) (*openstack.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil, nil
	}
	ev := f.events[len(f.events)-1]
	return &ev, nil
}

func (f *fakeAPI) CreateStack(_ context.Context, opts openstack.StackOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = &opts
	f.stack = &openstack.Stack{
		ID:   "stack-1",
		Name: opts.Name,
		Outputs: []openstack.StackOutput{
			{Key: "KeystoneURL", Value: f.endpoint},
		},
	}
	f.emit(opts.Name, ActionCreate)
	return f.stack.ID, nil
}

func (f *fakeAPI) UpdateStack(_ context.Context, _ *openstack.Stack, opts openstack.StackOpts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = &opts
	f.emit(f.stack.Name, ActionUpdate)
	return nil
}

func (f *fakeAPI) emit(name, action string) {
	status := action + "_COMPLETE"
	if f.failAction {
		status = action + "_FAILED"
	}
	n := len(f.events)
	f.events = append(f.events,
		openstack.Event{ID: eventID(n + 1), ResourceName: "Controller", Status: action + "_IN_PROGRESS"},
		openstack.Event{ID: eventID(n + 2), ResourceName: name, Status: status},
	)
}

func eventID(n int) string {
	return "event-" + strconv.Itoa(n)
}

func (f *fakeAPI) ListNodes(_ context.Context, opts openstack.NodeListOpts) ([]openstack.Node, error) {
	var out []openstack.Node
	for _, n := range f.nodes {
		if opts.Associated != nil && n.Associated() != *opts.Associated {
			continue
		}
		if opts.Maintenance != nil && n.Maintenance != *opts.Maintenance {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeAPI) HypervisorStatistics(context.Context) (openstack.HypervisorStats, error) {
	return f.stats, nil
}

func (f *fakeAPI) FindNetworkID(_ context.Context, name string) (string, error) {
	return "net-" + name, nil
}

// writeTemplates lays out a minimal template tree and returns its root.
func writeTemplates(root string) string {
	files := map[string]string{
		TemplateName: `heat_template_version: '2015-04-30'
resources:
  Controller:
    type: OS::TripleO::Controller
  Config:
    type: puppet/config.yaml
outputs:
  KeystoneURL:
    value: {get_attr: [Controller, url]}
`,
		"puppet/config.yaml": `heat_template_version: '2015-04-30'
resources:
  Script:
    type: OS::Heat::SoftwareConfig
    properties:
      config: {get_file: scripts/run.sh}
`,
		"puppet/scripts/run.sh": "#!/bin/sh\necho configured\n",
		"puppet/controller.yaml": `heat_template_version: '2015-04-30'
resources: {}
`,
		ResourceRegistryName: `resource_registry:
  OS::TripleO::Controller: puppet/controller.yaml
parameter_defaults:
  CloudName: from-registry
`,
		RegistrationDir + registrationRegistryName: `resource_registry:
  OS::TripleO::NodeExtraConfig: rhel-registration.yaml
`,
		RegistrationDir + registrationEnvironmentName: `parameter_defaults:
  rhel_reg_repos: ""
`,
		RegistrationDir + "rhel-registration.yaml": `heat_template_version: '2015-04-30'
resources: {}
`,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	}
	return root
}
