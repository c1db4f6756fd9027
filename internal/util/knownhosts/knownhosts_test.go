package knownhosts

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func testKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func writeKnownHosts(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestRemove(t *testing.T) {
	t.Parallel()
	key := testKey(t)

	path := writeKnownHosts(t,
		"# managed by hand",
		knownhosts.Line([]string{"192.0.2.10"}, key),
		knownhosts.Line([]string{"192.0.2.11"}, key),
		knownhosts.Line([]string{knownhosts.HashHostname("192.0.2.10")}, key),
		knownhosts.Line([]string{"[192.0.2.10]:2222"}, key),
	)

	removed, err := Remove(path, "192.0.2.10")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# managed by hand")
	assert.Contains(t, content, "192.0.2.11")
	assert.Contains(t, content, "[192.0.2.10]:2222")
	assert.NotContains(t, content, "|1|")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRemove_NonStandardPort(t *testing.T) {
	t.Parallel()
	key := testKey(t)
	path := writeKnownHosts(t, knownhosts.Line([]string{"[192.0.2.10]:2222"}, key))

	removed, err := Remove(path, "192.0.2.10:2222")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestRemove_NoMatchLeavesFile(t *testing.T) {
	t.Parallel()
	key := testKey(t)
	path := writeKnownHosts(t, knownhosts.Line([]string{"192.0.2.11"}, key))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	removed, err := Remove(path, "192.0.2.10")
	require.NoError(t, err)
	assert.Zero(t, removed)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRemove_MissingFile(t *testing.T) {
	t.Parallel()
	removed, err := Remove(filepath.Join(t.TempDir(), "absent"), "192.0.2.10")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
