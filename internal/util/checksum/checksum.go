package checksum

import (
	"crypto/md5" // #nosec G501 -- content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/imamik/overcloud/internal/deployerr"
)

// ChunkSize is the read size used when streaming a file through the hash.
const ChunkSize = 64 * 1024

// File returns the lowercase hex MD5 digest of the file at path.
// It fails with a NotFoundError when path does not exist or is not a
// regular file. Other stat failures are returned wrapped.
func File(path string) (string, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &deployerr.NotFoundError{Kind: "regular file", Name: path}
	case err != nil:
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	case !info.Mode().IsRegular():
		return "", &deployerr.NotFoundError{Kind: "regular file", Name: path}
	}

	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader hashes r in ChunkSize reads.
func Reader(r io.Reader) (string, error) {
	h := md5.New() // #nosec G401
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal reports whether two files have the same digest.
func Equal(a, b string) (bool, error) {
	sumA, err := File(a)
	if err != nil {
		return false, err
	}
	sumB, err := File(b)
	if err != nil {
		return false, err
	}
	return sumA == sumB, nil
}

// onlyReader hides WriterTo so CopyBuffer honours the chunk size.
type onlyReader struct {
	io.Reader
}
