package openstack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"

	"github.com/imamik/overcloud/internal/deployerr"
)

// FindNetworkID returns the ID of the network with the given name.
func (c *Client) FindNetworkID(ctx context.Context, name string) (string, error) {
	var found []networks.Network
	err := c.call(ctx, ServiceNetwork, http.MethodGet, func(sc *gophercloud.ServiceClient) error {
		pages, err := networks.List(sc, networks.ListOpts{Name: name}).AllPages(ctx)
		if err != nil {
			return err
		}
		found, err = networks.ExtractNetworks(pages)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up network %s: %w", name, err)
	}
	if len(found) == 0 {
		return "", &deployerr.NotFoundError{Kind: "network", Name: name}
	}
	return found[0].ID, nil
}
