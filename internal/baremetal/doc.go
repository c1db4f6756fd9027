// Package baremetal drives bulk provision state changes and hardware
// introspection of the undercloud's bare metal nodes.
package baremetal
