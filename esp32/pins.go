package esp32

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pin is a GPIO number.
type Pin int

func (p Pin) String() string {
	return fmt.Sprintf("GPIO%d", int(p))
}

// UnmarshalAttribute decodes a pin from a configuration value.
func (p *Pin) UnmarshalAttribute(raw interface{}) error {
	parsed, err := ParsePin(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePin accepts a pin as an integer, "5" or "GPIO5".
func ParsePin(raw interface{}) (Pin, error) {
	switch v := raw.(type) {
	case Pin:
		return v, nil
	case int:
		return pinFromInt(v)
	case int64:
		return pinFromInt(int(v))
	case uint64:
		return pinFromInt(int(v))
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Errorf("pin %v is not a whole number", v)
		}
		return pinFromInt(int(v))
	case string:
		s := strings.TrimSpace(strings.ToUpper(v))
		s = strings.TrimPrefix(s, "GPIO")
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errors.Errorf("cannot parse pin %q, expected a number or GPIOn", v)
		}
		return pinFromInt(n)
	default:
		return 0, errors.Errorf("cannot parse pin from %v (%T)", raw, raw)
	}
}

func pinFromInt(n int) (Pin, error) {
	if n < 0 {
		return 0, errors.Errorf("pin %d must not be negative", n)
	}
	return Pin(n), nil
}

// pinDefinition describes the GPIO layout of a variant.
type pinDefinition struct {
	MaxGPIO     int
	Missing     []int
	Flash       []int
	InputOnly   []int
	ADC1Channel map[Pin]int
}

func contains(set []int, p Pin) bool {
	for _, n := range set {
		if n == int(p) {
			return true
		}
	}
	return false
}

func rangeOf(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func sequentialChannels(firstPin, count int) map[Pin]int {
	out := make(map[Pin]int, count)
	for ch := 0; ch < count; ch++ {
		out[Pin(firstPin+ch)] = ch
	}
	return out
}

var pinDefinitions = map[Variant]pinDefinition{
	VariantESP32: {
		MaxGPIO:   39,
		Missing:   []int{20, 24, 28, 29, 30, 31},
		Flash:     rangeOf(6, 11),
		InputOnly: rangeOf(34, 39),
		ADC1Channel: map[Pin]int{
			36: 0, 37: 1, 38: 2, 39: 3, 32: 4, 33: 5, 34: 6, 35: 7,
		},
	},
	VariantESP32S2: {
		MaxGPIO:     46,
		Missing:     rangeOf(22, 25),
		Flash:       rangeOf(26, 32),
		InputOnly:   []int{46},
		ADC1Channel: sequentialChannels(1, 10),
	},
	VariantESP32S3: {
		MaxGPIO:     48,
		Missing:     rangeOf(22, 25),
		Flash:       rangeOf(26, 32),
		ADC1Channel: sequentialChannels(1, 10),
	},
	VariantESP32C3: {
		MaxGPIO:     21,
		Flash:       rangeOf(12, 17),
		ADC1Channel: sequentialChannels(0, 5),
	},
	VariantESP32C6: {
		MaxGPIO:     30,
		Flash:       rangeOf(24, 30),
		ADC1Channel: sequentialChannels(0, 7),
	},
	VariantESP32H2: {
		MaxGPIO:     27,
		Flash:       rangeOf(15, 21),
		ADC1Channel: sequentialChannels(1, 5),
	},
}

func definitionFor(variant Variant) (pinDefinition, error) {
	def, ok := pinDefinitions[variant]
	if !ok {
		return pinDefinition{}, errors.Errorf("no pin definitions for variant %q", variant)
	}
	return def, nil
}

func validateGPIO(variant Variant, def pinDefinition, pin Pin) error {
	if int(pin) > def.MaxGPIO || contains(def.Missing, pin) {
		return errors.Errorf("%s does not have pin %s", variant, pin)
	}
	if contains(def.Flash, pin) {
		return errors.Errorf("pin %s cannot be used on %s, it is already used by the flash interface", pin, variant)
	}
	return nil
}

// ValidateInputPin checks that pin exists on the variant and can be read as a digital input.
func ValidateInputPin(platform Platform, pin Pin) error {
	variant := platform.Variant()
	def, err := definitionFor(variant)
	if err != nil {
		return err
	}
	return validateGPIO(variant, def, pin)
}

// ValidateOutputPin checks that pin exists on the variant and can drive an output.
func ValidateOutputPin(platform Platform, pin Pin) error {
	variant := platform.Variant()
	def, err := definitionFor(variant)
	if err != nil {
		return err
	}
	if err := validateGPIO(variant, def, pin); err != nil {
		return err
	}
	if contains(def.InputOnly, pin) {
		return errors.Errorf("pin %s on %s is input only", pin, variant)
	}
	return nil
}

// ValidateADCPin checks that pin is routed to ADC1 on the variant and returns its channel.
func ValidateADCPin(platform Platform, pin Pin) (int, error) {
	return ADC1Channel(platform.Variant(), pin)
}

// ADC1Channel returns the ADC1 channel a pin is routed to.
func ADC1Channel(variant Variant, pin Pin) (int, error) {
	def, err := definitionFor(variant)
	if err != nil {
		return 0, err
	}
	channel, ok := def.ADC1Channel[pin]
	if !ok {
		return 0, errors.Errorf("%s is not an ADC1 pin on %s", pin, variant)
	}
	return channel, nil
}
