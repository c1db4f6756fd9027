package credentials

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"time"

	"github.com/imamik/overcloud/internal/util/fileutil"
)

// Generate loads the credential file at path, fills every canonical name
// that is missing or empty and persists the result. Existing non-empty
// values are never replaced. The file is only rewritten when it changed.
func Generate(path string) (*Set, error) {
	set := newSet()
	existed := false

	// #nosec G304
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		set = parseSet(data)
		existed = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read credential file %s: %w", path, err)
	}

	changed := false
	for _, name := range Names {
		if v, ok := set.Get(name); ok && v != "" {
			continue
		}
		password, err := GeneratePassword(MinLength)
		if err != nil {
			return nil, err
		}
		set.put(name, password)
		changed = true
	}

	if changed || !existed {
		if err := fileutil.WriteAtomic(path, set.marshal(), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write credential file: %w", err)
		}
	}

	return set, nil
}

// GeneratePassword returns a random string of length n drawn uniformly
// from an unambiguous alphanumeric charset.
func GeneratePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordCharset)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordCharset[idx.Int64()]
	}
	return string(out), nil
}

// CephxKey returns a new base64 encoded cephx secret.
func CephxKey() (string, error) {
	return cephxKey(time.Now(), rand.Reader)
}

// cephxKey packs the little-endian header {type=1, created, nanos=0, len}
// in front of 16 random key bytes.
func cephxKey(now time.Time, random io.Reader) (string, error) {
	key := make([]byte, 16)
	if _, err := io.ReadFull(random, key); err != nil {
		return "", fmt.Errorf("failed to generate cephx key: %w", err)
	}

	var buf bytes.Buffer
	header := struct {
		Type    int16
		Created int32
		Nanos   int32
		Len     int16
	}{1, int32(now.Unix()), 0, int16(len(key))} // #nosec G115
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return "", fmt.Errorf("failed to encode cephx header: %w", err)
	}
	buf.Write(key)

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
