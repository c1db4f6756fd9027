package openstack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/baremetal/v1/nodes"
)

// Provision states and the transitions that lead to them.
const (
	StateManageable = "manageable"
	StateAvailable  = "available"
	StateEnroll     = "enroll"
	StateActive     = "active"

	TransitionManage  = "manage"
	TransitionProvide = "provide"
	TransitionInspect = "inspect"
)

// Node is a bare metal node.
type Node struct {
	UUID           string
	Name           string
	ProvisionState string
	PowerState     string
	InstanceUUID   string
	Maintenance    bool
}

// Associated reports whether an instance is deployed on the node.
func (n *Node) Associated() bool {
	return n.InstanceUUID != ""
}

func fromNode(n *nodes.Node) Node {
	return Node{
		UUID:           n.UUID,
		Name:           n.Name,
		ProvisionState: n.ProvisionState,
		PowerState:     n.PowerState,
		InstanceUUID:   n.InstanceUUID,
		Maintenance:    n.Maintenance,
	}
}

// NodeListOpts filters ListNodes. Nil fields are not filtered on.
type NodeListOpts struct {
	Associated  *bool
	Maintenance *bool
}

// ToNodeListQuery implements nodes.ListOptsBuilder.
func (o NodeListOpts) ToNodeListQuery() (string, error) {
	q := url.Values{}
	if o.Associated != nil {
		q.Set("associated", strconv.FormatBool(*o.Associated))
	}
	if o.Maintenance != nil {
		q.Set("maintenance", strconv.FormatBool(*o.Maintenance))
	}
	if len(q) == 0 {
		return "", nil
	}
	return "?" + q.Encode(), nil
}

// ToNodeListDetailQuery implements nodes.ListOptsBuilder.
func (o NodeListOpts) ToNodeListDetailQuery() (string, error) {
	return o.ToNodeListQuery()
}

// GetNode returns a node, or nil if it does not exist.
func (c *Client) GetNode(ctx context.Context, id string) (*Node, error) {
	var node Node
	err := c.call(ctx, ServiceBaremetal, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		n, err := nodes.Get(ctx, sc, id).Extract()
		if err != nil {
			return err
		}
		node = fromNode(n)
		return nil
	})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return &node, nil
}

// ListNodes lists all nodes matching opts, following pagination.
func (c *Client) ListNodes(ctx context.Context, opts NodeListOpts) ([]Node, error) {
	var all []Node
	err := c.call(ctx, ServiceBaremetal, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		pages, err := nodes.List(sc, opts).AllPages(ctx)
		if err != nil {
			return err
		}
		raw, err := nodes.ExtractNodes(pages)
		if err != nil {
			return err
		}
		for i := range raw {
			all = append(all, fromNode(&raw[i]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return all, nil
}

// SetProvisionState requests a provision state transition.
func (c *Client) SetProvisionState(ctx context.Context, id, transition string) error {
	err := c.call(ctx, ServiceBaremetal, http.MethodPut, func(sc *gophercloud.ServiceClient) error {
		return nodes.ChangeProvisionState(ctx, sc, id, nodes.ProvisionStateOpts{
			Target: nodes.TargetProvisionState(transition),
		}).ExtractErr()
	})
	if err != nil {
		return fmt.Errorf("failed to set provision state of node %s to %s: %w", id, transition, err)
	}
	return nil
}
