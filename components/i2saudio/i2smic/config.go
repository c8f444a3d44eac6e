package i2smic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/components/i2saudio"
	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/resource"
	"github.com/m5audio/micgen/utils"
)

// Defaults applied when a field is left out of the configuration.
const (
	DefaultChannel       = ChannelRight
	DefaultBitsPerSample = BitsPerSample32
	DefaultSampleRate    = 16000
	DefaultChannels      = 1
)

var (
	// InternalADCVariants are the chips whose ADC can sample an analog microphone.
	InternalADCVariants = []esp32.Variant{esp32.VariantESP32}
	// PDMVariants are the chips whose I2S peripheral can receive PDM.
	PDMVariants = []esp32.Variant{esp32.VariantESP32, esp32.VariantESP32S3}
)

// Channel selects which I2S slot the microphone is sampled from.
type Channel string

// The channels a microphone can be read from.
const (
	ChannelLeft  = Channel("left")
	ChannelRight = Channel("right")
)

var channelFormats = map[Channel]codegen.Raw{
	ChannelLeft:  codegen.GlobalNamespace.Enum("I2S_CHANNEL_FMT_ONLY_LEFT"),
	ChannelRight: codegen.GlobalNamespace.Enum("I2S_CHANNEL_FMT_ONLY_RIGHT"),
}

// UnmarshalAttribute decodes a channel, ignoring case.
func (c *Channel) UnmarshalAttribute(raw interface{}) error {
	s, ok := raw.(string)
	if !ok {
		return errors.Errorf("channel must be a string, got %T", raw)
	}
	parsed := Channel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := channelFormats[parsed]; !ok {
		return utils.NewOneOfError("channel", s, ChannelLeft, ChannelRight)
	}
	*c = parsed
	return nil
}

// Format returns the driver enum for the channel.
func (c Channel) Format() codegen.Raw {
	return channelFormats[c]
}

// BitsPerSample is the I2S sample width.
type BitsPerSample int

// The supported sample widths.
const (
	BitsPerSample16 = BitsPerSample(16)
	BitsPerSample32 = BitsPerSample(32)
)

var bitsPerSampleFormats = map[BitsPerSample]codegen.Raw{
	BitsPerSample16: codegen.GlobalNamespace.Enum("I2S_BITS_PER_SAMPLE_16BIT"),
	BitsPerSample32: codegen.GlobalNamespace.Enum("I2S_BITS_PER_SAMPLE_32BIT"),
}

// UnmarshalAttribute decodes a sample width written as 32, "32bit" or "32 bits".
func (b *BitsPerSample) UnmarshalAttribute(raw interface{}) error {
	var n float64
	switch v := raw.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		s = strings.TrimSuffix(s, "bits")
		s = strings.TrimSuffix(s, "bit")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.Errorf("bits_per_sample %q must be a number of bits, e.g. 32bit", v)
		}
		n = parsed
	default:
		return errors.Errorf("bits_per_sample must be a number of bits, got %T", raw)
	}
	parsed := BitsPerSample(n)
	if float64(parsed) != n {
		return errors.Errorf("bits_per_sample %v must be a whole number", n)
	}
	if _, ok := bitsPerSampleFormats[parsed]; !ok {
		return utils.NewOneOfError("bits_per_sample", raw, BitsPerSample16, BitsPerSample32)
	}
	*b = parsed
	return nil
}

// Format returns the driver enum for the sample width.
func (b BitsPerSample) Format() codegen.Raw {
	return bitsPerSampleFormats[b]
}

// Value is the literal width handed to the microphone: 32 for 32-bit samples, 16 otherwise.
func (b BitsPerSample) Value() int {
	if b == BitsPerSample32 {
		return 32
	}
	return 16
}

func (b BitsPerSample) String() string {
	return fmt.Sprintf("%dbit", int(b))
}

// ADCType discriminates how the microphone signal reaches the chip.
type ADCType string

// The ADC types.
const (
	ADCTypeInternal = ADCType("internal")
	ADCTypeExternal = ADCType("external")
)

// ADC is where samples come from. It is either an InternalADC or an ExternalADC.
type ADC interface {
	Type() ADCType
	// validate checks the ADC against the chip and returns it with any chip specific details resolved.
	validate(platform esp32.Platform) (ADC, error)
	wire(prog *codegen.Program, v *codegen.Variable)
}

// InternalADC samples an analog microphone through the chip's own ADC.
type InternalADC struct {
	Pin esp32.Pin

	channel int
}

// Type implements ADC.
func (InternalADC) Type() ADCType {
	return ADCTypeInternal
}

func (adc InternalADC) validate(platform esp32.Platform) (ADC, error) {
	if variant := platform.Variant(); !variant.In(InternalADCVariants) {
		return nil, errors.Errorf("%s does not have an internal ADC", variant)
	}
	channel, err := esp32.ValidateADCPin(platform, adc.Pin)
	if err != nil {
		return nil, errors.Wrap(err, "adc_pin")
	}
	adc.channel = channel
	return adc, nil
}

func (adc InternalADC) wire(prog *codegen.Program, v *codegen.Variable) {
	prog.Add(v.Call("set_adc_channel", codegen.Raw(fmt.Sprintf("ADC1_CHANNEL_%d", adc.channel))))
}

// ExternalADC reads a digital microphone over the I2S data-in line, optionally as PDM.
type ExternalADC struct {
	DINPin esp32.Pin
	PDM    bool
}

// Type implements ADC.
func (ExternalADC) Type() ADCType {
	return ADCTypeExternal
}

func (adc ExternalADC) validate(platform esp32.Platform) (ADC, error) {
	if variant := platform.Variant(); adc.PDM && !variant.In(PDMVariants) {
		return nil, errors.Errorf("%s does not support PDM", variant)
	}
	if err := esp32.ValidateInputPin(platform, adc.DINPin); err != nil {
		return nil, errors.Wrap(err, "i2s_din_pin")
	}
	return adc, nil
}

func (adc ExternalADC) wire(prog *codegen.Program, v *codegen.Variable) {
	prog.Add(v.Call("set_din_pin", int(adc.DINPin)))
	prog.Add(v.Call("set_pdm", adc.PDM))
}

// Attributes is the microphone configuration as written: one flat map whose adc_type selects which
// of the pin fields apply.
type Attributes struct {
	I2SAudioID    string         `json:"i2s_audio_id,omitempty"`
	ADCType       string         `json:"adc_type"`
	ADCPin        *esp32.Pin     `json:"adc_pin,omitempty"`
	DINPin        *esp32.Pin     `json:"i2s_din_pin,omitempty"`
	PDM           *bool          `json:"pdm,omitempty"`
	Channel       *Channel       `json:"channel,omitempty"`
	BitsPerSample *BitsPerSample `json:"bits_per_sample,omitempty"`
	SampleRate    *int           `json:"sample_rate,omitempty"`
	Channels      *int           `json:"channels,omitempty"`
	MaxChannels   *int           `json:"max_channels,omitempty"`
	SetupPriority *float64       `json:"setup_priority,omitempty"`
}

// Config describes the configuration of an I2S microphone.
type Config struct {
	I2SAudioID    string
	ADC           ADC
	Channel       Channel
	BitsPerSample BitsPerSample
	SampleRate    int
	Channels      int
	// MaxChannels is derived from Channels during validation when left unset.
	MaxChannels   *int
	SetupPriority *float64
}

var _ resource.ParentedConfig = (*Config)(nil)

// convertAttributes selects the ADC variant from adc_type and applies defaults.
func convertAttributes(attributes utils.AttributeMap) (*Config, error) {
	attrs, err := resource.TransformAttributeMap[*Attributes](attributes)
	if err != nil {
		return nil, err
	}
	return attrs.toConfig()
}

func (attrs *Attributes) toConfig() (*Config, error) {
	cfg := &Config{
		I2SAudioID:    attrs.I2SAudioID,
		Channel:       DefaultChannel,
		BitsPerSample: DefaultBitsPerSample,
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannels,
		MaxChannels:   attrs.MaxChannels,
		SetupPriority: attrs.SetupPriority,
	}
	if attrs.Channel != nil {
		cfg.Channel = *attrs.Channel
	}
	if attrs.BitsPerSample != nil {
		cfg.BitsPerSample = *attrs.BitsPerSample
	}
	if attrs.SampleRate != nil {
		cfg.SampleRate = *attrs.SampleRate
	}
	if attrs.Channels != nil {
		cfg.Channels = *attrs.Channels
	}

	switch ADCType(attrs.ADCType) {
	case "":
		return nil, errors.New(`"adc_type" is required`)
	case ADCTypeInternal:
		if attrs.DINPin != nil {
			return nil, errors.Wrap(utils.NewInvalidOptionError("i2s_din_pin"), "adc_type internal")
		}
		if attrs.PDM != nil {
			return nil, errors.Wrap(utils.NewInvalidOptionError("pdm"), "adc_type internal")
		}
		if attrs.ADCPin == nil {
			return nil, errors.New(`"adc_pin" is required for adc_type internal`)
		}
		cfg.ADC = InternalADC{Pin: *attrs.ADCPin}
	case ADCTypeExternal:
		if attrs.ADCPin != nil {
			return nil, errors.Wrap(utils.NewInvalidOptionError("adc_pin"), "adc_type external")
		}
		if attrs.DINPin == nil {
			return nil, errors.New(`"i2s_din_pin" is required for adc_type external`)
		}
		if attrs.PDM == nil {
			return nil, errors.New(`"pdm" is required for adc_type external`)
		}
		cfg.ADC = ExternalADC{DINPin: *attrs.DINPin, PDM: *attrs.PDM}
	default:
		return nil, utils.NewOneOfError("adc_type", attrs.ADCType, ADCTypeInternal, ADCTypeExternal)
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid for the target chip and fills in
// MaxChannels. It returns the audio bus the microphone attaches to as its dependency.
func (cfg *Config) Validate(path string, platform esp32.Platform) ([]string, error) {
	if cfg.I2SAudioID == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "i2s_audio_id")
	}
	if cfg.ADC == nil {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "adc_type")
	}
	if _, ok := channelFormats[cfg.Channel]; !ok {
		return nil, goutils.NewConfigValidationError(path,
			utils.NewOneOfError("channel", cfg.Channel, ChannelLeft, ChannelRight))
	}
	if _, ok := bitsPerSampleFormats[cfg.BitsPerSample]; !ok {
		return nil, goutils.NewConfigValidationError(path,
			utils.NewOneOfError("bits_per_sample", int(cfg.BitsPerSample), BitsPerSample16, BitsPerSample32))
	}
	// the driver takes the rate as a uint32_t
	if cfg.SampleRate <= 0 || int64(cfg.SampleRate) > math.MaxUint32 {
		return nil, goutils.NewConfigValidationError(path,
			errors.Errorf("sample_rate must be a positive integer no larger than %d, got %d", uint32(math.MaxUint32), cfg.SampleRate))
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, goutils.NewConfigValidationError(path, utils.NewOneOfError("channels", cfg.Channels, 1, 2))
	}

	if err := utils.CheckFinite("setup_priority", cfg.SetupPriority); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}

	adc, err := cfg.ADC.validate(platform)
	if err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	cfg.ADC = adc

	if cfg.MaxChannels == nil {
		maxChannels := cfg.Channels
		cfg.MaxChannels = &maxChannels
	}
	return []string{cfg.I2SAudioID}, nil
}

// ParentAPI implements resource.ParentedConfig.
func (cfg *Config) ParentAPI() resource.API {
	return i2saudio.API
}

// ParentName implements resource.ParentedConfig.
func (cfg *Config) ParentName() string {
	return cfg.I2SAudioID
}

// SetParentName implements resource.ParentedConfig.
func (cfg *Config) SetParentName(name string) {
	cfg.I2SAudioID = name
}
