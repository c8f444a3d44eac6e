// Package esp32 describes the ESP32 chip family: variants, boards and the pins each variant exposes.
package esp32

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Variant names a chip within the ESP32 family.
type Variant string

// The known ESP32 variants.
const (
	VariantESP32   = Variant("ESP32")
	VariantESP32S2 = Variant("ESP32S2")
	VariantESP32S3 = Variant("ESP32S3")
	VariantESP32C3 = Variant("ESP32C3")
	VariantESP32C6 = Variant("ESP32C6")
	VariantESP32H2 = Variant("ESP32H2")
)

// Variants lists every supported variant.
var Variants = []Variant{
	VariantESP32,
	VariantESP32S2,
	VariantESP32S3,
	VariantESP32C3,
	VariantESP32C6,
	VariantESP32H2,
}

// A Platform answers which chip the firmware is being built for.
type Platform interface {
	Variant() Variant
}

// Variant lets a bare Variant act as its own Platform.
func (v Variant) Variant() Variant {
	return v
}

// In returns whether the variant is one of the given set.
func (v Variant) In(set []Variant) bool {
	return lo.Contains(set, v)
}

// ParseVariant parses a variant name. Case and dashes are ignored so "esp32-s3" and "ESP32S3" are
// the same variant.
func ParseVariant(name string) (Variant, error) {
	normalized := Variant(strings.ToUpper(strings.ReplaceAll(name, "-", "")))
	if !normalized.In(Variants) {
		return "", errors.Errorf("unknown ESP32 variant %q, valid options are %v", name, Variants)
	}
	return normalized, nil
}

// boardVariants maps common board identifiers to the chip they carry.
var boardVariants = map[string]Variant{
	"esp32dev":           VariantESP32,
	"m5stack-core-esp32": VariantESP32,
	"m5stack-atom":       VariantESP32,
	"m5stack-cores3":     VariantESP32S3,
	"esp32-s3-devkitc-1": VariantESP32S3,
	"seeed_xiao_esp32s3": VariantESP32S3,
	"esp32-s2-saola-1":   VariantESP32S2,
	"esp32-c3-devkitm-1": VariantESP32C3,
	"seeed_xiao_esp32c3": VariantESP32C3,
	"esp32-c6-devkitc-1": VariantESP32C6,
	"esp32-h2-devkitm-1": VariantESP32H2,
}

// A NoBoardFoundError is returned when a board has no known variant and none was given explicitly.
type NoBoardFoundError struct {
	board string
}

func (err NoBoardFoundError) Error() string {
	return fmt.Sprintf("could not determine the ESP32 variant of board %q, set variant explicitly", err.board)
}

// Target is the chip the firmware is built for, as declared by the esp32 block of a configuration.
type Target struct {
	Board   string
	variant Variant
}

// NewTarget resolves a target from a board name and an optional explicit variant. The explicit
// variant wins when the board is unknown; a known board that disagrees with it is an error.
func NewTarget(board, variant string) (Target, error) {
	var explicit Variant
	if variant != "" {
		var err error
		explicit, err = ParseVariant(variant)
		if err != nil {
			return Target{}, err
		}
	}
	fromBoard, known := boardVariants[strings.ToLower(board)]
	switch {
	case explicit != "" && known && fromBoard != explicit:
		return Target{}, errors.Errorf("board %q is a %s but variant %s was requested", board, fromBoard, explicit)
	case explicit != "":
		return Target{Board: board, variant: explicit}, nil
	case known:
		return Target{Board: board, variant: fromBoard}, nil
	case board == "":
		return Target{}, errors.New("esp32 requires a board or a variant")
	default:
		return Target{}, NoBoardFoundError{board}
	}
}

// Variant returns the chip variant of the target.
func (t Target) Variant() Variant {
	return t.variant
}
