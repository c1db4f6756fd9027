package openstack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/orchestration/v1/stackevents"
	"github.com/gophercloud/gophercloud/v2/openstack/orchestration/v1/stacks"
	"github.com/gophercloud/gophercloud/v2/pagination"
)

// heatTimeFormat is how event times are reported to callers.
const heatTimeFormat = "2006-01-02T15:04:05"

// Stack is an orchestration stack.
type Stack struct {
	ID           string
	Name         string
	Status       string
	StatusReason string
	Parameters   map[string]string
	Outputs      []StackOutput
}

// StackOutput is one value published by a stack.
type StackOutput struct {
	Key         string
	Value       any
	Description string
}

// Output returns the value of the output named key.
func (s *Stack) Output(key string) (any, bool) {
	for _, o := range s.Outputs {
		if o.Key == key {
			return o.Value, true
		}
	}
	return nil, false
}

// Event is one resource state change of a stack or its nested stacks.
type Event struct {
	ID                 string
	Time               string
	ResourceName       string
	Status             string
	Reason             string
	PhysicalResourceID string
}

// SortAsc and SortDesc order event listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// EventListOpts filters ListEvents. Zero values are omitted.
type EventListOpts struct {
	Marker      string
	NestedDepth int
	SortDir     string
	Limit       int
}

// ToStackEventListQuery implements stackevents.ListOptsBuilder. The SDK's
// own options lack nested_depth.
func (o EventListOpts) ToStackEventListQuery() (string, error) {
	q := url.Values{}
	if o.Marker != "" {
		q.Set("marker", o.Marker)
	}
	if o.NestedDepth > 0 {
		q.Set("nested_depth", strconv.Itoa(o.NestedDepth))
	}
	if o.SortDir != "" {
		q.Set("sort_dir", o.SortDir)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return "", nil
	}
	return "?" + q.Encode(), nil
}

// StackOpts is the body of a create or update.
type StackOpts struct {
	Name           string
	Template       any
	Files          map[string]string
	Environment    any
	Parameters     map[string]any
	TimeoutMinutes int
}

func (o StackOpts) body() map[string]any {
	b := map[string]any{}
	if o.Name != "" {
		b["stack_name"] = o.Name
	}
	if o.Template != nil {
		b["template"] = o.Template
	}
	if len(o.Files) > 0 {
		b["files"] = o.Files
	}
	if o.Environment != nil {
		b["environment"] = o.Environment
	}
	if len(o.Parameters) > 0 {
		b["parameters"] = o.Parameters
	}
	if o.TimeoutMinutes > 0 {
		b["timeout_mins"] = o.TimeoutMinutes
	}
	return b
}

// ToStackCreateMap implements stacks.CreateOptsBuilder.
func (o StackOpts) ToStackCreateMap() (map[string]any, error) {
	return o.body(), nil
}

// ToStackUpdateMap implements stacks.UpdateOptsBuilder.
func (o StackOpts) ToStackUpdateMap() (map[string]any, error) {
	o.Name = ""
	return o.body(), nil
}

// ToStackUpdatePatchMap implements stacks.UpdatePatchOptsBuilder.
func (o StackOpts) ToStackUpdatePatchMap() (map[string]any, error) {
	return o.ToStackUpdateMap()
}

// GetStack returns the stack with the given name or ID, or nil if it does
// not exist.
func (c *Client) GetStack(ctx context.Context, name string) (*Stack, error) {
	var rs *stacks.RetrievedStack
	err := c.call(ctx, ServiceOrchestration, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		var err error
		rs, err = stacks.Find(ctx, sc, name).Extract()
		return err
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stack %s: %w", name, err)
	}

	st := &Stack{
		ID:           rs.ID,
		Name:         rs.Name,
		Status:       rs.Status,
		StatusReason: rs.StatusReason,
		Parameters:   rs.Parameters,
	}
	for _, o := range rs.Outputs {
		out := StackOutput{Value: o["output_value"]}
		out.Key, _ = o["output_key"].(string)
		out.Description, _ = o["description"].(string)
		st.Outputs = append(st.Outputs, out)
	}
	c.rememberStack(name, st)
	return st, nil
}

func (c *Client) rememberStack(ref string, st *Stack) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stackIDs[ref] = st.ID
	c.stackIDs[st.Name] = st.ID
}

// stackRef resolves a stack name or ID to the name and ID pair the event
// API is addressed by.
func (c *Client) stackRef(ctx context.Context, stack string) (string, string, error) {
	c.mu.Lock()
	id, ok := c.stackIDs[stack]
	c.mu.Unlock()
	if ok {
		return stack, id, nil
	}
	st, err := c.GetStack(ctx, stack)
	if err != nil {
		return "", "", err
	}
	if st == nil {
		return "", "", &APIError{StatusCode: http.StatusNotFound, Method: http.MethodGet, URL: "stacks/" + stack, Message: "stack not found"}
	}
	return st.Name, st.ID, nil
}

func toEvents(page pagination.Page) ([]Event, error) {
	raw, err := stackevents.ExtractEvents(page)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, Event{
			ID:                 e.ID,
			Time:               e.Time.Format(heatTimeFormat),
			ResourceName:       e.ResourceName,
			Status:             e.ResourceStatus,
			Reason:             e.ResourceStatusReason,
			PhysicalResourceID: e.PhysicalResourceID,
		})
	}
	return events, nil
}

// ListEvents lists the events of a stack. Pages are followed by marker
// until Heat returns an empty one, so Limit only sizes the pages.
func (c *Client) ListEvents(ctx context.Context, stack string, opts EventListOpts) ([]Event, error) {
	name, id, err := c.stackRef(ctx, stack)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of stack %s: %w", stack, err)
	}

	var events []Event
	err = c.call(ctx, ServiceOrchestration, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		pages, err := stackevents.List(sc, name, id, opts).AllPages(ctx)
		if err != nil {
			return err
		}
		events, err = toEvents(pages)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events of stack %s: %w", stack, err)
	}
	return events, nil
}

// LatestEvent returns the most recent top-level event of a stack, or nil if
// it has none.
func (c *Client) LatestEvent(ctx context.Context, stack string) (*Event, error) {
	name, id, err := c.stackRef(ctx, stack)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of stack %s: %w", stack, err)
	}

	var latest *Event
	err = c.call(ctx, ServiceOrchestration, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		opts := EventListOpts{SortDir: SortDesc, Limit: 1}
		return stackevents.List(sc, name, id, opts).EachPage(ctx, func(_ context.Context, page pagination.Page) (bool, error) {
			events, err := toEvents(page)
			if err != nil {
				return false, err
			}
			if len(events) > 0 {
				latest = &events[0]
			}
			return false, nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events of stack %s: %w", stack, err)
	}
	return latest, nil
}

// CreateStack creates a stack and returns its ID.
func (c *Client) CreateStack(ctx context.Context, opts StackOpts) (string, error) {
	var id string
	err := c.call(ctx, ServiceOrchestration, http.MethodPost, func(sc *gophercloud.ServiceClient) error {
		created, err := stacks.Create(ctx, sc, opts).Extract()
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create stack %s: %w", opts.Name, err)
	}
	return id, nil
}

// UpdateStack patches an existing stack. Parameters not given keep their
// current values.
func (c *Client) UpdateStack(ctx context.Context, stack *Stack, opts StackOpts) error {
	err := c.call(ctx, ServiceOrchestration, http.MethodPatch, func(sc *gophercloud.ServiceClient) error {
		return stacks.UpdatePatch(ctx, sc, stack.Name, stack.ID, opts).ExtractErr()
	})
	if err != nil {
		return fmt.Errorf("failed to update stack %s: %w", stack.Name, err)
	}
	return nil
}
