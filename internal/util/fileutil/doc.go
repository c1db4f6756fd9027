// Package fileutil provides crash-safe file writes.
//
// [WriteAtomic] writes to a temporary file in the destination directory and
// renames it into place, so readers never observe a torn file.
package fileutil
