/*
Package i2saudio implements the I2S audio bus that I2S microphones and speakers attach to.

Sample configuration:

	i2s_audio:
	  - id: i2s_bus
	    i2s_lrclk_pin: 33
	    i2s_bclk_pin: 34
*/
package i2saudio

import (
	"context"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
	"github.com/m5audio/micgen/utils"
)

// SubtypeName is the configuration section audio buses are declared under.
const SubtypeName = resource.SubtypeName("i2s_audio")

// API identifies the I2S audio bus API.
var API = resource.NewComponentAPI(SubtypeName)

// Model is the only audio bus model; the section has no platform key.
var Model = resource.NewDefaultModel("i2s_audio")

// Namespace is the C++ namespace of the I2S audio classes.
var Namespace = codegen.Namespace("i2s_audio")

// ComponentType is the generated class of the bus itself.
var ComponentType = Namespace.Class("I2SAudioComponent")

func init() {
	resource.RegisterComponent(API, Model, resource.Registration[*Config]{
		ToCode: toCode,
	})
}

// Named is a helper for getting the named bus's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// Config describes the pins of an I2S audio bus.
type Config struct {
	LRCLKPin      *esp32.Pin `json:"i2s_lrclk_pin"`
	BCLKPin       *esp32.Pin `json:"i2s_bclk_pin,omitempty"`
	MCLKPin       *esp32.Pin `json:"i2s_mclk_pin,omitempty"`
	SetupPriority *float64   `json:"setup_priority,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string, platform esp32.Platform) ([]string, error) {
	if cfg.LRCLKPin == nil {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "i2s_lrclk_pin")
	}
	if err := utils.CheckFinite("setup_priority", cfg.SetupPriority); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	used := map[esp32.Pin]string{}
	for _, p := range []struct {
		field string
		pin   *esp32.Pin
	}{
		{"i2s_lrclk_pin", cfg.LRCLKPin},
		{"i2s_bclk_pin", cfg.BCLKPin},
		{"i2s_mclk_pin", cfg.MCLKPin},
	} {
		if p.pin == nil {
			continue
		}
		if err := esp32.ValidateOutputPin(platform, *p.pin); err != nil {
			return nil, goutils.NewConfigValidationError(path, errors.Wrap(err, p.field))
		}
		if other, dup := used[*p.pin]; dup {
			return nil, goutils.NewConfigValidationError(path,
				errors.Errorf("%s and %s both use pin %s", other, p.field, *p.pin))
		}
		used[*p.pin] = p.field
	}
	return nil, nil
}

func toCode(ctx context.Context, prog *codegen.Program, conf resource.Config, logger logging.Logger) error {
	cfg, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return err
	}
	v, err := prog.NewPvariable(codegen.ID{Name: conf.Name, Type: ComponentType})
	if err != nil {
		return err
	}
	prog.RegisterComponent(v, codegen.ComponentOptions{SetupPriority: cfg.SetupPriority})

	prog.Add(v.Call("set_lrclk_pin", int(*cfg.LRCLKPin)))
	if cfg.BCLKPin != nil {
		prog.Add(v.Call("set_bclk_pin", int(*cfg.BCLKPin)))
	}
	if cfg.MCLKPin != nil {
		prog.Add(v.Call("set_mclk_pin", int(*cfg.MCLKPin)))
	}
	logger.Debugw("emitted i2s audio bus", "id", conf.Name)
	return nil
}
