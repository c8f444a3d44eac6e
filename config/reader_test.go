package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"github.com/m5audio/micgen/components/i2saudio"
	"github.com/m5audio/micgen/components/i2saudio/i2smic"
	"github.com/m5audio/micgen/components/microphone"
	"github.com/m5audio/micgen/config"
	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
)

const internalMicConfig = `
esp32:
  board: esp32dev
microphone:
  - platform: i2s_audio
    id: mic
    i2s_audio_id: i2s_bus
    adc_type: internal
    adc_pin: 34
    channel: right
    bits_per_sample: 32
    sample_rate: ${MIC_SAMPLE_RATE}
    channels: 1
i2s_audio:
  - id: i2s_bus
    i2s_lrclk_pin: 33
    i2s_bclk_pin: GPIO26
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.yaml")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func fromString(t *testing.T, contents string) (*config.Config, error) {
	t.Helper()
	return config.FromReader(context.Background(), "somepath", strings.NewReader(contents), logging.NewTestLogger(t))
}

func TestRead(t *testing.T) {
	t.Setenv("MIC_SAMPLE_RATE", "16000")
	logger := logging.NewTestLogger(t)

	cfg, err := config.Read(context.Background(), writeConfig(t, internalMicConfig), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ESP32, test.ShouldResemble, config.ESP32{Board: "esp32dev"})
	test.That(t, cfg.Components, test.ShouldHaveLength, 2)
	test.That(t, cfg.Components[0].Name, test.ShouldEqual, "i2s_bus")
	test.That(t, cfg.Components[1].Name, test.ShouldEqual, "mic")
	test.That(t, cfg.Components[1].ImplicitDependsOn, test.ShouldResemble, []string{"i2s_bus"})

	mic := cfg.FindComponent("mic")
	test.That(t, mic, test.ShouldNotBeNil)
	test.That(t, mic.API, test.ShouldResemble, microphone.API)
	test.That(t, mic.Model, test.ShouldResemble, i2smic.Model)
	native, err := resource.NativeConfig[*i2smic.Config](*mic)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, native.SampleRate, test.ShouldEqual, 16000)
	test.That(t, *native.MaxChannels, test.ShouldEqual, 1)

	bus := cfg.FindComponent("i2s_bus")
	test.That(t, bus, test.ShouldNotBeNil)
	test.That(t, bus.API, test.ShouldResemble, i2saudio.API)
	test.That(t, cfg.FindComponent("speaker"), test.ShouldBeNil)

	prog, err := cfg.Generate(context.Background(), logger, nil)
	test.That(t, err, test.ShouldBeNil)
	expected := []string{
		"i2s_bus = new i2s_audio::I2SAudioComponent();",
		"App.register_component(i2s_bus);",
		"i2s_bus->set_lrclk_pin(33);",
		"i2s_bus->set_bclk_pin(26);",
		"mic = new i2s_audio::I2SAudioMicrophone();",
		"App.register_component(mic);",
		"mic->set_parent(i2s_bus);",
		"mic->set_sample_rate(16000);",
		"mic->set_channels(1);",
		"mic->set_bits_per_sample_val(32);",
		"mic->set_max_channels(1);",
	}
	if diff := cmp.Diff(expected, prog.Lines()); diff != "" {
		t.Errorf("unexpected statements (-want +got):\n%s", diff)
	}
	test.That(t, prog.Defines(), test.ShouldResemble, []string{"USE_ESP32_VARIANT_ESP32", microphone.Define})

	var rendered strings.Builder
	test.That(t, prog.Render(&rendered), test.ShouldBeNil)
	test.That(t, rendered.String(), test.ShouldContainSubstring, "i2s_audio::I2SAudioMicrophone *mic;")
	test.That(t, rendered.String(), test.ShouldContainSubstring, "  mic->set_max_channels(1);\n")

	_, err = config.Read(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderValidate(t *testing.T) {
	_, err := fromString(t, "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = fromString(t, "- 1\n- 2\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "config must be a mapping of sections")

	_, err = fromString(t, "esp32:\n  board: esp32dev\nspeaker:\n  - platform: i2s_audio\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `component "speaker" not found`)

	_, err = fromString(t, "esp32:\n  board: esp32dev\n  framework: arduino\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "[framework] is an invalid option")

	_, err = fromString(t, "esp32:\n  board: unknown-board\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "esp32"`)

	_, err = fromString(t, "i2s_audio:\n  - i2s_lrclk_pin: 33\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "esp32 requires a board or a variant")

	cfg, err := fromString(t, "esp32:\n  variant: esp32-s3\n")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Components, test.ShouldBeEmpty)

	_, err = fromString(t, "esp32:\n  variant: esp32\nmicrophone:\n  - platform: i2s_audio\n    id: 7\n")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `microphone.0: "id" must be a string`)

	_, err = fromString(t, `
esp32:
  variant: esp32
i2s_audio:
  - id: bus
    i2s_lrclk_pin: 33
  - id: bus
    i2s_lrclk_pin: 25
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `i2s_audio.1: ID "bus" redefined, it is already used by i2s_audio.0`)

	_, err = fromString(t, `
esp32:
  variant: esp32
microphone:
  - platform: usb
    adc_type: external
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `platform "usb" is not supported for microphone`)
}

func TestVariantMismatch(t *testing.T) {
	t.Setenv("MIC_SAMPLE_RATE", "16000")
	logger := logging.NewTestLogger(t)

	cfg, err := config.ReadUnvalidated(context.Background(), writeConfig(t, internalMicConfig), logger)
	test.That(t, err, test.ShouldBeNil)

	err = cfg.Validate(esp32.VariantESP32S3)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.0": ESP32S3 does not have an internal ADC`)

	_, err = cfg.Generate(context.Background(), logger, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be validated")

	test.That(t, cfg.Validate(esp32.VariantESP32), test.ShouldBeNil)
	_, err = cfg.Generate(context.Background(), logger, nil)
	test.That(t, err, test.ShouldBeNil)
}

func TestPDMOnUnsupportedVariant(t *testing.T) {
	_, err := fromString(t, `
esp32:
  board: esp32-c3-devkitm-1
i2s_audio:
  - i2s_lrclk_pin: 4
microphone:
  - platform: i2s_audio
    adc_type: external
    i2s_din_pin: 5
    pdm: true
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ESP32C3 does not support PDM")
}

func TestGeneratedIDsAndParents(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := config.FromReader(context.Background(), "somepath", strings.NewReader(`
esp32:
  board: m5stack-cores3
i2s_audio:
  i2s_lrclk_pin: 33
microphone:
  - platform: i2s_audio
    adc_type: external
    i2s_din_pin: 14
    pdm: true
  - platform: i2s_audio
    id: second
    adc_type: external
    i2s_din_pin: 15
    pdm: false
    channels: 2
`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("generated ID").Len(), test.ShouldEqual, 2)

	names := make([]string, 0, len(cfg.Components))
	for _, conf := range cfg.Components {
		names = append(names, conf.Name)
	}
	test.That(t, names, test.ShouldResemble, []string{"i2s_audio_id", "microphone_i2s_audio_id", "second"})

	for _, name := range []string{"microphone_i2s_audio_id", "second"} {
		native, err := resource.NativeConfig[*i2smic.Config](*cfg.FindComponent(name))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, native.I2SAudioID, test.ShouldEqual, "i2s_audio_id")
	}

	prog, err := cfg.Generate(context.Background(), logger, map[string]bool{i2smic.FeaturePinWiring: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, microphone.All(prog), test.ShouldHaveLength, 2)
	test.That(t, prog.Lines(), test.ShouldContain, "microphone_i2s_audio_id->set_pdm(true);")
	test.That(t, prog.Lines(), test.ShouldContain, "second->set_max_channels(2);")
}

func TestParentResolutionErrors(t *testing.T) {
	_, err := fromString(t, `
esp32:
  variant: esp32
microphone:
  - platform: i2s_audio
    adc_type: external
    i2s_din_pin: 14
    pdm: false
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "requires a i2s_audio component but none is declared")

	_, err = fromString(t, `
esp32:
  variant: esp32
i2s_audio:
  - id: left_bus
    i2s_lrclk_pin: 33
  - id: right_bus
    i2s_lrclk_pin: 25
microphone:
  - platform: i2s_audio
    adc_type: external
    i2s_din_pin: 14
    pdm: false
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "2 i2s_audio components are declared (left_bus, right_bus)")

	_, err = fromString(t, `
esp32:
  variant: esp32
i2s_audio:
  - id: bus
    i2s_lrclk_pin: 33
microphone:
  - platform: i2s_audio
    i2s_audio_id: nope
    adc_type: external
    i2s_din_pin: 14
    pdm: false
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.0": couldn't find ID "nope"`)

	_, err = fromString(t, `
esp32:
  variant: esp32
i2s_audio:
  - id: bus
    i2s_lrclk_pin: 33
microphone:
  - platform: i2s_audio
    id: first
    i2s_audio_id: bus
    adc_type: external
    i2s_din_pin: 14
    pdm: false
  - platform: i2s_audio
    i2s_audio_id: first
    adc_type: external
    i2s_din_pin: 15
    pdm: false
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `ID "first" is a microphone, expected a i2s_audio`)
}

func TestValidateCollectsErrors(t *testing.T) {
	_, err := fromString(t, `
esp32:
  variant: esp32
i2s_audio:
  - id: bus
    i2s_lrclk_pin: 33
microphone:
  - platform: i2s_audio
    adc_type: internal
    adc_pin: 25
  - platform: i2s_audio
    adc_type: external
    i2s_din_pin: 7
    pdm: false
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.0": adc_pin: GPIO25 is not an ADC1 pin on ESP32`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.1": i2s_din_pin`)

	_, err = fromString(t, `
esp32:
  variant: esp32
microphone:
  - platform: i2s_audio
    adc_type: internal
    adc_pin: 34
    volume: 11
  - platform: i2s_audio
    adc_type: hdmi
`)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.0": [volume] is an invalid option`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `error validating "microphone.1": unknown value hdmi for "adc_type"`)
}

func TestGenerateCanceled(t *testing.T) {
	t.Setenv("MIC_SAMPLE_RATE", "8000")
	logger := logging.NewTestLogger(t)
	cfg, err := config.Read(context.Background(), writeConfig(t, internalMicConfig), logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cfg.Generate(ctx, logger, nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
