package handlers

import (
	"context"

	"github.com/imamik/overcloud/internal/util/checksum"
)

// Checksum prints "<md5>  <path>" for every path.
func Checksum(_ context.Context, paths []string) error {
	for _, p := range paths {
		sum, err := checksum.File(p)
		if err != nil {
			return err
		}
		printf("%s  %s\n", sum, p)
	}
	return nil
}
