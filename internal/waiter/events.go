package waiter

import (
	"fmt"
	"strings"

	"github.com/imamik/overcloud/internal/platform/openstack"
)

// FormatEvents renders events one per line as
// "<time> [<resource>]: <status>  <reason>".
func FormatEvents(events []openstack.Event) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s [%s]: %s  %s",
			strings.ReplaceAll(ev.Time, "T", " "), ev.ResourceName, ev.Status, ev.Reason))
	}
	return strings.Join(lines, "\n")
}
