package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/m5audio/micgen/components/i2saudio/i2smic"
	// register every built in component.
	_ "github.com/m5audio/micgen/components/register"
	"github.com/m5audio/micgen/config"
	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
)

// ValidateAction is the corresponding Action for 'validate'. Files are validated concurrently and
// every failure is reported.
func ValidateAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("validate requires at least one configuration FILE argument")
	}
	paths := c.Args().Slice()
	summaries := make([]string, len(paths))
	errs := make([]error, len(paths))

	var group errgroup.Group
	for idx, path := range paths {
		idx, path := idx, path
		group.Go(func() error {
			cfg, platform, err := readConfig(c, path)
			if err != nil {
				errs[idx] = errors.Wrap(err, path)
				return nil
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s is valid for %s: %d components", path, platform.Variant(), len(cfg.Components))
			for _, conf := range cfg.Components {
				fmt.Fprintf(&sb, "\n\t%s (%s)", conf.Name, conf.API.SubtypeName)
			}
			summaries[idx] = sb.String()
			return nil
		})
	}
	//nolint:errcheck
	group.Wait()

	for _, summary := range summaries {
		if summary != "" {
			printf(c.App.Writer, "%s", summary)
		}
	}
	return multierr.Combine(errs...)
}

// CompileAction is the corresponding Action for 'compile'.
func CompileAction(c *cli.Context) error {
	path, err := configPathArg(c)
	if err != nil {
		return err
	}
	if !c.Bool(compileFlagWatch) {
		return compile(c, path)
	}

	if err := compile(c, path); err != nil {
		errorf(c.App.ErrWriter, "%v", err)
	}
	infof(c.App.Writer, "watching %s for changes", path)
	return watch(c.Context, path, c.Duration(compileFlagWatchSettle), logging.Global(), func() {
		if err := compile(c, path); err != nil {
			errorf(c.App.ErrWriter, "%v", err)
			return
		}
		infof(c.App.Writer, "regenerated %s", outputName(c))
	})
}

func compile(c *cli.Context, path string) error {
	logger := logging.Global()
	cfg, _, err := readConfig(c, path)
	if err != nil {
		return err
	}
	prog, err := cfg.Generate(c.Context, logger, map[string]bool{
		i2smic.FeaturePinWiring: c.Bool(compileFlagPinWiring),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := prog.Render(&buf); err != nil {
		return err
	}
	out := c.String(compileFlagOutput)
	if c.Bool(compileFlagCheck) {
		return checkUpToDate(c, out, buf.String())
	}
	if out == "" {
		_, err := c.App.Writer.Write(buf.Bytes())
		return err
	}
	//nolint:gosec
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "could not write %s", out)
	}
	logger.Debugw("wrote generated code", "path", out, "bytes", buf.Len())
	return nil
}

func outputName(c *cli.Context) string {
	if out := c.String(compileFlagOutput); out != "" {
		return out
	}
	return "stdout"
}

// readConfig reads and validates the configuration, honoring the variant override.
func readConfig(c *cli.Context, path string) (*config.Config, esp32.Platform, error) {
	logger := logging.Global()
	cfg, err := config.ReadUnvalidated(c.Context, path, logger)
	if err != nil {
		return nil, nil, err
	}

	var platform esp32.Platform
	if v := c.String(compileFlagVariant); v != "" {
		variant, err := esp32.ParseVariant(v)
		if err != nil {
			return nil, nil, err
		}
		logger.Debugw("overriding variant", "declared", cfg.ESP32, "variant", variant)
		platform = variant
	} else {
		target, err := cfg.Target()
		if err != nil {
			return nil, nil, err
		}
		platform = target
	}

	if err := cfg.Validate(platform); err != nil {
		return nil, nil, err
	}
	return cfg, platform, nil
}

func configPathArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.Errorf("%s requires exactly one configuration FILE argument", c.Command.Name)
	}
	return c.Args().First(), nil
}

// SchemaAction is the corresponding Action for 'schema'. It prints one schema per registered
// model, keyed by section/platform.
func SchemaAction(c *cli.Context) error {
	filter := c.Args().First()
	schemas := map[string]*jsonschema.Schema{}
	for _, am := range resource.RegisteredModels() {
		key := fmt.Sprintf("%s/%s", am.API.SubtypeName, am.Model.Name)
		if filter != "" && key != filter && string(am.API.SubtypeName) != filter {
			continue
		}
		reg, ok := resource.LookupRegistration(am.API, am.Model)
		if !ok || reg.AttributesType == nil {
			continue
		}
		schemas[key] = jsonschema.Reflect(reflect.New(reg.AttributesType).Interface())
	}
	if len(schemas) == 0 {
		return errors.Errorf("no component matches %q", filter)
	}

	var out interface{} = schemas
	if len(schemas) == 1 {
		for _, schema := range schemas {
			out = schema
		}
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", encoded)
	return nil
}

// ModelsAction is the corresponding Action for 'models'.
func ModelsAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Section", "Platform", "Model", "Attributes"})
	for _, am := range resource.RegisteredModels() {
		attrs := ""
		if reg, ok := resource.LookupRegistration(am.API, am.Model); ok && reg.AttributesType != nil {
			attrs = strings.Join(attributeNames(reg.AttributesType), ", ")
		}
		t.AppendRow(table.Row{am.API.SubtypeName, am.Model.Name, am.Model.String(), attrs})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func attributeNames(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names = append(names, name)
	}
	return names
}
