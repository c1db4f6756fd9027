package baremetal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/waiter"
)

var transitionTargets = map[string]string{
	openstack.TransitionManage:  openstack.StateManageable,
	openstack.TransitionProvide: openstack.StateAvailable,
}

// fakeAPI keeps node states in memory. Transitions complete instantly
// except for nodes listed in stuck.
type fakeAPI struct {
	mu           sync.Mutex
	order        []string
	states       map[string]string
	stuck        map[string]bool
	introErrors  map[string]string
	introRunning map[string]bool
	transitions  []string
	introspected []string
	setErr       error
}

func newFakeAPI(nodes ...[2]string) *fakeAPI {
	f := &fakeAPI{
		states:       map[string]string{},
		stuck:        map[string]bool{},
		introErrors:  map[string]string{},
		introRunning: map[string]bool{},
	}
	for _, n := range nodes {
		f.order = append(f.order, n[0])
		f.states[n[0]] = n[1]
	}
	return f
}

func (f *fakeAPI) ListNodes(context.Context, openstack.NodeListOpts) ([]openstack.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]openstack.Node, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, openstack.Node{UUID: id, ProvisionState: f.states[id]})
	}
	return out, nil
}

func (f *fakeAPI) GetNode(_ context.Context, id string) (*openstack.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[id]
	if !ok {
		return nil, nil
	}
	return &openstack.Node{UUID: id, ProvisionState: st}, nil
}

func (f *fakeAPI) SetProvisionState(_ context.Context, id, transition string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.transitions = append(f.transitions, id+":"+transition)
	if !f.stuck[id] {
		f.states[id] = transitionTargets[transition]
	}
	return nil
}

func (f *fakeAPI) StartIntrospection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.introspected = append(f.introspected, id)
	return nil
}

func (f *fakeAPI) GetIntrospectionStatus(_ context.Context, id string) (openstack.IntrospectionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return openstack.IntrospectionStatus{Finished: !f.introRunning[id], Error: f.introErrors[id]}, nil
}

func fastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		ProvisionPollAttempts:     3,
		ProvisionPollInterval:     time.Millisecond,
		IntrospectionPollAttempts: 3,
		IntrospectionPollInterval: time.Millisecond,
	}
}

func newTestManager(api API) *Manager {
	m := NewManager(api, fastTimeouts())
	m.IntrospectionStagger = time.Millisecond
	return m
}

func TestSetNodesState(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(
		[2]string{"a", openstack.StateEnroll},
		[2]string{"b", openstack.StateActive},
		[2]string{"c", openstack.StateEnroll},
	)
	api.stuck["c"] = true
	nodes, _ := api.ListNodes(context.Background(), openstack.NodeListOpts{})

	res, err := newTestManager(api).SetNodesState(context.Background(), nodes,
		openstack.TransitionManage, openstack.StateManageable, openstack.StateActive)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, res.Succeeded)
	assert.Equal(t, []string{"c"}, res.Failed)
	assert.Equal(t, []string{"b"}, res.Skipped)
	assert.Equal(t, []string{"a:manage", "c:manage"}, api.transitions)
}

func TestSetNodesState_RequestError(t *testing.T) {
	t.Parallel()

	api := newFakeAPI([2]string{"a", openstack.StateEnroll})
	api.setErr = errors.New("node locked")
	nodes, _ := api.ListNodes(context.Background(), openstack.NodeListOpts{})

	_, err := newTestManager(api).SetNodesState(context.Background(), nodes,
		openstack.TransitionManage, openstack.StateManageable)
	assert.ErrorIs(t, err, api.setErr)
}

func TestManageAndProvide(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(
		[2]string{"a", openstack.StateEnroll},
		[2]string{"b", openstack.StateManageable},
		[2]string{"c", openstack.StateActive},
	)
	m := newTestManager(api)

	res, err := m.Manage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, res.Succeeded)
	assert.ElementsMatch(t, []string{"b", "c"}, res.Skipped)

	res, err = m.Provide(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Succeeded)
	assert.Equal(t, []string{"c"}, res.Skipped)
	assert.Equal(t, openstack.StateActive, api.states["c"])
}

func TestIntrospectAll(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(
		[2]string{"a", openstack.StateAvailable},
		[2]string{"b", openstack.StateManageable},
		[2]string{"c", openstack.StateAvailable},
		[2]string{"d", openstack.StateActive},
	)
	api.introErrors["c"] = "ramdisk timeout"

	var seen []string
	report, err := newTestManager(api).IntrospectAll(context.Background(), func(r waiter.IntrospectionResult) {
		seen = append(seen, r.NodeID)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, api.introspected)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Empty(t, report.Unfinished)
	assert.True(t, report.HasErrors())
	assert.Equal(t, []string{"a", "b", "c"}, report.Provided.Succeeded)
	assert.Equal(t, []string{"d"}, report.Provided.Skipped)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, openstack.StateAvailable, api.states[id])
	}
}

func TestIntrospectAll_UnfinishedNodeIsNotProvided(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(
		[2]string{"a", openstack.StateManageable},
		[2]string{"slow", openstack.StateManageable},
	)
	api.introRunning["slow"] = true

	report, err := newTestManager(api).IntrospectAll(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"slow"}, report.Unfinished)
	assert.True(t, report.HasErrors())
	assert.Equal(t, []string{"a"}, report.Provided.Succeeded)
	assert.NotContains(t, report.Provided.Skipped, "slow")
	assert.NotContains(t, api.transitions, "slow:"+openstack.TransitionProvide)
	assert.Equal(t, openstack.StateManageable, api.states["slow"])
	assert.Equal(t, openstack.StateAvailable, api.states["a"])
}

func TestIntrospectAll_Canceled(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(
		[2]string{"a", openstack.StateManageable},
		[2]string{"b", openstack.StateManageable},
	)
	m := newTestManager(api)
	m.IntrospectionStagger = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	report, err := m.IntrospectAll(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, report.Started)
}

func TestIntrospectionStatuses(t *testing.T) {
	t.Parallel()

	api := newFakeAPI([2]string{"a", openstack.StateAvailable}, [2]string{"b", openstack.StateAvailable})
	api.introErrors["b"] = "failed"

	statuses, err := newTestManager(api).IntrospectionStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].NodeID)
	assert.True(t, statuses[0].Finished)
	assert.Equal(t, "failed", statuses[1].Error)
}

func TestIntrospectionReport_HasErrors(t *testing.T) {
	t.Parallel()

	assert.False(t, (&IntrospectionReport{}).HasErrors())
	assert.True(t, (&IntrospectionReport{Unfinished: []string{"x"}}).HasErrors())
}
