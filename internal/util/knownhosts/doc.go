// Package knownhosts edits OpenSSH known_hosts files.
package knownhosts
