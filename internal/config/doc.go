// Package config loads the deploy configuration.
//
// [Load] reads an overcloud.yaml file, applies defaults and OS_* environment
// overrides and validates the result. [LoadTimeouts] reads poll cadences and
// budgets from OVERCLOUD_* environment variables.
package config
