// Package render turns deploy settings into the files handed to the
// orchestration service or left behind for the operator: the scale
// environment, the parameters environment, the registration environment,
// the overcloud RC file and the tempest deployer input.
//
// Renderers are pure; the Write* helpers persist their output atomically.
package render
