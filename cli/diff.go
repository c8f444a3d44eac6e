package cli

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/urfave/cli/v2"
)

// checkUpToDate compares freshly generated code with the file at out and prints what changed.
func checkUpToDate(c *cli.Context, out, generated string) error {
	if out == "" {
		return errors.Errorf("--%s requires --%s", compileFlagCheck, compileFlagOutput)
	}
	existing, err := os.ReadFile(out)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", out)
	}
	pretty, changed := prettyDiff(string(existing), generated)
	if !changed {
		infof(c.App.Writer, "%s is up to date", out)
		return nil
	}
	printf(c.App.Writer, "%s", pretty)
	return errors.Errorf("%s is out of date, run compile without --%s to regenerate it", out, compileFlagCheck)
}

// prettyDiff returns the changed parts between two versions of generated code and whether there
// were any.
func prettyDiff(left, right string) (string, bool) {
	dmp := diffmatchpatch.New()
	leftLines, rightLines, lines := dmp.DiffLinesToChars(left, right)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(leftLines, rightLines, false), lines)
	filteredDiffs := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		filteredDiffs = append(filteredDiffs, d)
	}
	if len(filteredDiffs) == 0 {
		return "", false
	}
	return dmp.DiffPrettyText(filteredDiffs), true
}
