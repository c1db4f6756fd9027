package handlers

import (
	"context"
	"strings"

	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/platform/openstack"
	"github.com/imamik/overcloud/internal/waiter"
)

// WaitStack follows the events of a stack until action completes or
// fails. An empty name waits for the configured stack.
func WaitStack(ctx context.Context, configPath, name, marker, action string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	if name == "" {
		name = s.cfg.Stack
	}
	action = strings.ToUpper(action)

	w := &waiter.StackWaiter{
		API:      s.api,
		Interval: s.timeouts.StackPollInterval,
		OnEvents: func(events []openstack.Event) {
			printf("%s", waiter.FormatEvents(events))
		},
	}
	res, err := w.Wait(ctx, name, marker, action)
	if err != nil {
		return err
	}

	if !res.Outcome.Succeeded() {
		printRow("Stack "+name+":", res.Outcome.String(), errStyle)
		return &deployerr.DeploymentError{Msg: "Heat Stack " + strings.ToLower(action) + " failed."}
	}
	printRow("Stack "+name+":", res.Outcome.String(), okStyle)
	return nil
}
