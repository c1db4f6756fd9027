// Package openstack adapts the gophercloud SDK to the undercloud services
// the deploy helpers talk to: identity, orchestration, bare metal,
// introspection, compute, networking and images.
//
// The Client exposes only the calls the deploy workflow needs, with small
// value types so callers never import gophercloud. Service errors are
// returned as *APIError, which unwraps to an errdefs class; lookups of
// single resources return nil instead of an error when the resource does
// not exist.
package openstack
