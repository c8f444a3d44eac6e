// Package config defines the structures that describe a device and its declared components, and
// drives validation and code generation over them.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
)

// SortComponents sorts list of components topologically based off what other components they depend on.
func SortComponents(components []resource.Config) ([]resource.Config, error) {
	componentToConfig := make(map[string]resource.Config, len(components))
	dependencies := map[string][]string{}

	for _, conf := range components {
		if _, ok := componentToConfig[conf.Name]; ok {
			return nil, errors.Errorf("ID %q redefined", conf.Name)
		}
		componentToConfig[conf.Name] = conf
		dependencies[conf.Name] = conf.ImplicitDependsOn
	}

	sortedCmps := make([]resource.Config, 0, len(components))
	visited := map[string]bool{}

	var dfsHelper func(string, []string) error
	dfsHelper = func(name string, path []string) error {
		for idx, cmpName := range path {
			if name == cmpName {
				return errors.Errorf("circular dependency detected in component list between %s", strings.Join(path[idx:], ", "))
			}
		}

		path = append(path, name)
		if _, ok := visited[name]; ok {
			return nil
		}
		visited[name] = true
		for _, dp := range dependencies[name] {
			// create a deep copy of current path
			pathCopy := make([]string, len(path))
			copy(pathCopy, path)

			if err := dfsHelper(dp, pathCopy); err != nil {
				return err
			}
		}
		if ctc, ok := componentToConfig[name]; ok {
			sortedCmps = append(sortedCmps, ctc)
		}
		return nil
	}

	for _, c := range components {
		if _, ok := visited[c.Name]; !ok {
			var path []string
			if err := dfsHelper(c.Name, path); err != nil {
				return nil, err
			}
		}
	}

	return sortedCmps, nil
}

// ESP32 is the chip block of a configuration. Either field may be left out as long as the chip
// can still be determined.
type ESP32 struct {
	Board   string `json:"board,omitempty"`
	Variant string `json:"variant,omitempty"`
}

// A Config describes the configuration of a device.
type Config struct {
	ConfigFilePath string
	ESP32          ESP32
	// Components are in declaration order until the config is validated, after which they are in
	// dependency order.
	Components []resource.Config

	// paths holds the location of each component in the configuration, like "microphone.0".
	paths        map[string]string
	pendingPaths []string
	platform     esp32.Platform
}

// Target resolves the chip declared by the esp32 block.
func (c *Config) Target() (esp32.Target, error) {
	target, err := esp32.NewTarget(c.ESP32.Board, c.ESP32.Variant)
	if err != nil {
		return esp32.Target{}, goutils.NewConfigValidationError("esp32", err)
	}
	return target, nil
}

// Ensure validates the config against the chip declared by its esp32 block.
func (c *Config) Ensure() error {
	target, err := c.Target()
	if err != nil {
		return err
	}
	return c.Validate(target)
}

// Validate converts and validates every component for the given chip, fills in omitted parent
// references, checks every dependency is declared and sorts components based on what they depend
// on. All component errors are reported together.
func (c *Config) Validate(platform esp32.Platform) error {
	if platform == nil {
		return errors.New("cannot validate a config without a target chip")
	}

	var errs error
	for idx := range c.Components {
		conf := &c.Components[idx]
		reg, ok := resource.LookupRegistration(conf.API, conf.Model)
		if !ok {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf),
				errors.Errorf("platform %q is not supported for %s", conf.Model.Name, conf.API.SubtypeName)))
			continue
		}
		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf), err))
			continue
		}
		conf.ConvertedAttributes = converted
	}
	if errs != nil {
		return errs
	}

	errs = multierr.Append(errs, c.resolveParents())
	if errs != nil {
		return errs
	}

	for idx := range c.Components {
		conf := &c.Components[idx]
		if _, err := conf.Validate(c.path(conf), platform); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}

	if err := c.checkDependencies(); err != nil {
		return err
	}

	sorted, err := SortComponents(c.Components)
	if err != nil {
		return err
	}
	c.Components = sorted
	c.platform = platform
	return nil
}

// resolveParents fills in the parent of every component that left it out, provided exactly one
// candidate is declared.
func (c *Config) resolveParents() error {
	var errs error
	for idx := range c.Components {
		conf := &c.Components[idx]
		parented, ok := conf.ConvertedAttributes.(resource.ParentedConfig)
		if !ok || parented.ParentName() != "" {
			continue
		}
		candidates := c.componentsOf(parented.ParentAPI())
		switch len(candidates) {
		case 1:
			parented.SetParentName(candidates[0])
		case 0:
			errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf),
				errors.Errorf("requires a %s component but none is declared", parented.ParentAPI().SubtypeName)))
		default:
			errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf),
				errors.Errorf("%d %s components are declared (%s), choose one explicitly",
					len(candidates), parented.ParentAPI().SubtypeName, strings.Join(candidates, ", "))))
		}
	}
	return errs
}

func (c *Config) checkDependencies() error {
	byName := make(map[string]resource.Config, len(c.Components))
	for _, conf := range c.Components {
		byName[conf.Name] = conf
	}

	var errs error
	for idx := range c.Components {
		conf := &c.Components[idx]
		for _, dep := range conf.ImplicitDependsOn {
			other, ok := byName[dep]
			if !ok {
				errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf),
					errors.Errorf("couldn't find ID %q", dep)))
				continue
			}
			parented, ok := conf.ConvertedAttributes.(resource.ParentedConfig)
			if ok && parented.ParentName() == dep && other.API != parented.ParentAPI() {
				errs = multierr.Append(errs, goutils.NewConfigValidationError(c.path(conf),
					errors.Errorf("ID %q is a %s, expected a %s", dep, other.API.SubtypeName, parented.ParentAPI().SubtypeName)))
			}
		}
	}
	return errs
}

func (c *Config) componentsOf(api resource.API) []string {
	var names []string
	for _, conf := range c.Components {
		if conf.API == api {
			names = append(names, conf.Name)
		}
	}
	return names
}

func (c *Config) path(conf *resource.Config) string {
	if p, ok := c.paths[conf.Name]; ok {
		return p
	}
	return string(conf.API.SubtypeName)
}

// FindComponent finds a particular component by name.
func (c *Config) FindComponent(name string) *resource.Config {
	for idx := range c.Components {
		if c.Components[idx].Name == name {
			return &c.Components[idx]
		}
	}
	return nil
}

// Generate emits every component in dependency order. The config must have been validated.
// Features names the optional emission paths to turn on.
func (c *Config) Generate(ctx context.Context, logger logging.Logger, features map[string]bool) (*codegen.Program, error) {
	if c.platform == nil {
		return nil, errors.New("config must be validated before generating code")
	}
	logger = logger.Sublogger("codegen")

	prog := codegen.NewProgram(logger)
	for name, enabled := range features {
		prog.SetFeature(name, enabled)
	}
	prog.AddDefine(fmt.Sprintf("USE_ESP32_VARIANT_%s", c.platform.Variant()))

	for _, conf := range c.Components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reg, ok := resource.LookupRegistration(conf.API, conf.Model)
		if !ok {
			return nil, errors.Errorf("no registration for %s", conf.String())
		}
		if err := reg.ToCode(ctx, prog, conf, logger.Sublogger(string(conf.API.SubtypeName))); err != nil {
			logger.Errorw("failed to generate component", "component", conf.ResourceName().String(), "error", err)
			return nil, err
		}
	}
	return prog, nil
}
