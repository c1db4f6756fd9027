package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/overcloud/internal/baremetal"
	"github.com/imamik/overcloud/internal/waiter"
)

// newNodeManager creates the bare metal workflow runner (for testing injection).
var newNodeManager = func(s *session) *baremetal.Manager {
	return baremetal.NewManager(s.api, s.timeouts)
}

// NodeManage moves available nodes to manageable.
func NodeManage(ctx context.Context, configPath string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	res, err := newNodeManager(s).Manage(ctx)
	if err != nil {
		return err
	}
	return reportTransition("manage", res)
}

// NodeProvide moves manageable nodes to available.
func NodeProvide(ctx context.Context, configPath string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	res, err := newNodeManager(s).Provide(ctx)
	if err != nil {
		return err
	}
	return reportTransition("provide", res)
}

func reportTransition(transition string, res baremetal.TransitionResult) error {
	for _, id := range res.Succeeded {
		printRow(id, "done", okStyle)
	}
	for _, id := range res.Skipped {
		printRow(id, "skipped", dimStyle)
	}
	for _, id := range res.Failed {
		printRow(id, "timed out", warnStyle)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%s did not finish for nodes: %s", transition, strings.Join(res.Failed, ", "))
	}
	return nil
}

// NodeIntrospect introspects every node and makes them available again.
func NodeIntrospect(ctx context.Context, configPath string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}

	printTitle("Introspecting nodes")
	report, err := newNodeManager(s).IntrospectAll(ctx, func(r waiter.IntrospectionResult) {
		if r.Status.Error != "" {
			printRow(r.NodeID, "error: "+r.Status.Error, errStyle)
			return
		}
		printRow(r.NodeID, "finished", okStyle)
	})
	if err != nil {
		return err
	}
	for _, id := range report.Unfinished {
		printRow(id, "did not finish", warnStyle)
	}
	if report.HasErrors() {
		return fmt.Errorf("introspection failed for some nodes, check the introspection service logs")
	}
	printf("%s\n", styled(okStyle, "Introspection completed."))
	return nil
}

// NodeIntrospectionStatus prints the introspection state of every node.
func NodeIntrospectionStatus(ctx context.Context, configPath string) error {
	s, err := newSession(configPath)
	if err != nil {
		return err
	}
	statuses, err := newNodeManager(s).IntrospectionStatuses(ctx)
	if err != nil {
		return err
	}

	printf("  %-38s %-10s %s\n", "Node UUID", "Finished", "Error")
	for _, st := range statuses {
		style := okStyle
		switch {
		case st.Error != "":
			style = errStyle
		case !st.Finished:
			style = warnStyle
		}
		printf("  %-38s %-10s %s\n", st.NodeID, styled(style, fmt.Sprint(st.Finished)), st.Error)
	}
	return nil
}
