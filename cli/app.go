// Package cli contains the micgen command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/m5audio/micgen/logging"
)

const (
	// Flags.
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	compileFlagOutput      = "output"
	compileFlagCheck       = "check"
	compileFlagVariant     = "variant"
	compileFlagPinWiring   = "experimental-pin-wiring"
	compileFlagWatch       = "watch"
	compileFlagWatchSettle = "watch-settle"
)

// NewApp returns the micgen application writing to out and errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	variantFlag := &cli.StringFlag{
		Name:  compileFlagVariant,
		Usage: "validate against `VARIANT` instead of the chip declared by the esp32 block",
	}
	return &cli.App{
		Name:            "micgen",
		Usage:           "validate device configurations and generate firmware setup code",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotating it as it grows",
			},
		},
		Before: func(c *cli.Context) error {
			level := logging.INFO
			if c.Bool(generalFlagDebug) {
				level = logging.DEBUG
			}
			if path := c.String(generalFlagLogFile); path != "" {
				logging.ReplaceGlobal(logging.NewFileLogger("micgen", level, path))
				return nil
			}
			if level == logging.DEBUG {
				logging.ReplaceGlobal(logging.NewDebugLogger("micgen"))
			} else {
				logging.ReplaceGlobal(logging.NewLogger("micgen"))
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate a device configuration",
				ArgsUsage: "FILE...",
				Flags:     []cli.Flag{variantFlag},
				Action:    ValidateAction,
			},
			{
				Name:      "compile",
				Usage:     "generate the firmware setup code for a device configuration",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    compileFlagOutput,
						Aliases: []string{"o"},
						Usage:   "write the generated code to `FILE` instead of stdout",
					},
					variantFlag,
					&cli.BoolFlag{
						Name:  compileFlagPinWiring,
						Usage: "emit ADC channel, data-in pin, PDM and sample format setters for microphones",
					},
					&cli.BoolFlag{
						Name:  compileFlagCheck,
						Usage: "fail with a diff instead of writing when the --output file is out of date",
					},
					&cli.BoolFlag{
						Name:  compileFlagWatch,
						Usage: "regenerate whenever the configuration file changes",
					},
					&cli.DurationFlag{
						Name:   compileFlagWatchSettle,
						Usage:  "wait this long after a change before regenerating",
						Value:  defaultWatchSettle,
						Hidden: true,
					},
				},
				Action: CompileAction,
			},
			{
				Name:      "schema",
				Usage:     "print the JSON schema of component attributes",
				ArgsUsage: "[SECTION[/PLATFORM]]",
				Action:    SchemaAction,
			},
			{
				Name:   "models",
				Usage:  "list the supported components and platforms",
				Action: ModelsAction,
			},
		},
		// errors are returned from Run so the caller prints them and flushes logs before exiting.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}
