package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/multierr"
)

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// infof prints a message prefixed with a bold cyan "Info: ".
func infof(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgCyan).Fprint(w, "Info: ")
	printf(w, format, a...)
}

// errorf prints a message prefixed with a bold red "Error: ".
func errorf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgRed).Fprint(w, "Error: ")
	printf(w, format, a...)
}

// PrintError prints every error combined into err on its own line, in red.
func PrintError(w io.Writer, err error) {
	for _, e := range multierr.Errors(err) {
		errorf(w, "%v", e)
	}
}
