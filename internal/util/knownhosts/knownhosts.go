package knownhosts

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 -- hashed known_hosts entries are HMAC-SHA1
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/imamik/overcloud/internal/util/fileutil"
)

const hashPrefix = "|1|"

// Remove deletes every entry for host from the known_hosts file at path,
// including hashed entries. A missing file is not an error. It reports
// how many lines were removed.
func Remove(path, host string) (int, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	want := knownhosts.Normalize(host)
	var kept bytes.Buffer
	removed := 0
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if lineMatches(line, want) {
			removed++
			continue
		}
		kept.Write(line)
	}
	if removed == 0 {
		return 0, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := fileutil.WriteAtomic(path, kept.Bytes(), info.Mode().Perm()); err != nil {
		return 0, err
	}
	return removed, nil
}

// lineMatches reports whether a known_hosts line names host. Comments and
// lines that do not parse never match.
func lineMatches(line []byte, host string) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return false
	}
	_, hosts, _, _, _, err := ssh.ParseKnownHosts(trimmed)
	if err != nil {
		return false
	}
	for _, pattern := range hosts {
		if strings.HasPrefix(pattern, hashPrefix) {
			if hashedMatch(pattern, host) {
				return true
			}
			continue
		}
		if knownhosts.Normalize(pattern) == host {
			return true
		}
	}
	return false
}

// hashedMatch checks a "|1|salt|hash" pattern against host.
func hashedMatch(pattern, host string) bool {
	parts := strings.Split(strings.TrimPrefix(pattern, hashPrefix), "|")
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	mac := hmac.New(sha1.New, salt)
	mac.Write([]byte(host))
	return hmac.Equal(mac.Sum(nil), want)
}
