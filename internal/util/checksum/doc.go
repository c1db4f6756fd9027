// Package checksum computes streaming content digests of files.
//
// The digest is MD5 because image stores compare against it across hosts;
// changing the algorithm breaks that comparison.
package checksum
