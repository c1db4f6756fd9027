// Package deploy creates or updates the overcloud orchestration stack.
//
// A deployment assembles stack parameters from configuration and the
// credential store, checks undercloud capacity, bundles the templates and
// environment files into a single request, waits for the stack action to
// finish and finally writes the files needed to use the overcloud.
package deploy
