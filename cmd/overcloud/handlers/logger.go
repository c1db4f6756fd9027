package handlers

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Log formats accepted by NewLogger.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewLogger returns a logger writing one line per entry to w. verbosity
// enables V(1) and deeper messages.
func NewLogger(w io.Writer, verbosity int, format string) (logr.Logger, error) {
	write := func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}
	opts := funcr.Options{Verbosity: verbosity}

	switch format {
	case LogFormatText, "":
		return funcr.New(write, opts), nil
	case LogFormatJSON:
		return funcr.NewJSON(func(obj string) { fmt.Fprintln(w, obj) }, opts), nil
	default:
		return logr.Discard(), fmt.Errorf("unknown log format %q (want %s or %s)", format, LogFormatText, LogFormatJSON)
	}
}
