package openstack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/baremetalintrospection/v1/introspection"
)

// IntrospectionStatus is the introspection state of one node.
type IntrospectionStatus struct {
	Finished bool
	Error    string
}

// StartIntrospection starts hardware introspection of a node.
func (c *Client) StartIntrospection(ctx context.Context, id string) error {
	err := c.call(ctx, ServiceIntrospection, http.MethodPost, func(sc *gophercloud.ServiceClient) error {
		return introspection.StartIntrospection(ctx, sc, id, introspection.StartOpts{}).ExtractErr()
	})
	if err != nil {
		return fmt.Errorf("failed to start introspection of node %s: %w", id, err)
	}
	return nil
}

// GetIntrospectionStatus returns the introspection state of a node.
func (c *Client) GetIntrospectionStatus(ctx context.Context, id string) (IntrospectionStatus, error) {
	var st IntrospectionStatus
	err := c.call(ctx, ServiceIntrospection, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		in, err := introspection.GetIntrospectionStatus(ctx, sc, id).Extract()
		if err != nil {
			return err
		}
		st = IntrospectionStatus{Finished: in.Finished, Error: in.Error}
		return nil
	})
	if err != nil {
		return IntrospectionStatus{}, fmt.Errorf("failed to get introspection status of node %s: %w", id, err)
	}
	return st, nil
}
