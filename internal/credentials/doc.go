// Package credentials generates and persists the overcloud service secrets.
//
// The canonical set of secret names is fixed. [Generate] loads the
// credential file if present, fills any missing or empty entry with a fresh
// random value and writes the file back, so repeated runs keep every value
// they already handed out. [Store] wraps this in a lazily initialised,
// process-lifetime cache that is safe for concurrent use.
package credentials
