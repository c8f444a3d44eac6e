/*
Package i2smic implements the I2S microphone platform. A microphone is either sampled through the
chip's internal ADC or read from an external digital microphone on the I2S data-in line, and is
always attached to an i2s_audio bus.

Sample configuration:

	microphone:
	  - platform: i2s_audio
	    id: mic
	    i2s_audio_id: i2s_bus
	    adc_type: external
	    i2s_din_pin: 14
	    pdm: false
	    channel: left
	    bits_per_sample: 16bit
	    sample_rate: 16000
*/
package i2smic

import (
	"context"
	"reflect"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/components/i2saudio"
	"github.com/m5audio/micgen/components/microphone"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
)

// Model is the microphone platform name.
var Model = resource.NewDefaultModel("i2s_audio")

// Type is the generated microphone class. It targets the i2s_audio microphone of current
// firmware; the older M5 CoreS3 class (m5cores3_audio::I2SAudioMicrophone) has no
// set_max_channels and is not supported.
var Type = i2saudio.Namespace.Class("I2SAudioMicrophone")

// FeaturePinWiring enables emitting the ADC channel, data-in pin, PDM mode, channel format and
// sample width enum setters. Current firmware releases of the microphone class do not accept them
// yet, so the feature is off unless explicitly enabled.
const FeaturePinWiring = "i2s_audio.microphone.pin_wiring"

func init() {
	resource.RegisterComponent(microphone.API, Model, resource.Registration[*Config]{
		ToCode:                toCode,
		AttributeMapConverter: convertAttributes,
		AttributesType:        reflect.TypeOf(Attributes{}),
	})
}

func toCode(ctx context.Context, prog *codegen.Program, conf resource.Config, logger logging.Logger) error {
	cfg, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return err
	}
	v, err := prog.NewPvariable(codegen.ID{Name: conf.Name, Type: Type})
	if err != nil {
		return err
	}
	prog.RegisterComponent(v, codegen.ComponentOptions{SetupPriority: cfg.SetupPriority})
	if err := prog.RegisterParented(v, cfg.I2SAudioID); err != nil {
		return err
	}

	prog.Add(v.Call("set_sample_rate", cfg.SampleRate))
	prog.Add(v.Call("set_channels", cfg.Channels))
	prog.Add(v.Call("set_bits_per_sample_val", cfg.BitsPerSample.Value()))
	// set_max_channels needs a firmware release whose microphone class has the setter.
	prog.Add(v.Call("set_max_channels", cfg.maxChannels()))

	if prog.Feature(FeaturePinWiring) {
		cfg.ADC.wire(prog, v)
		prog.Add(v.Call("set_channel", cfg.Channel.Format()))
		prog.Add(v.Call("set_bits_per_sample", cfg.BitsPerSample.Format()))
	} else {
		logger.Debugw("skipping pin wiring", "id", conf.Name, "adc_type", cfg.ADC.Type(), "feature", FeaturePinWiring)
	}

	return microphone.Register(prog, v)
}

func (cfg *Config) maxChannels() int {
	if cfg.MaxChannels == nil {
		return cfg.Channels
	}
	return *cfg.MaxChannels
}
