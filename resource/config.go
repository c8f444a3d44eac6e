package resource

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/m5audio/micgen/esp32"
	"github.com/m5audio/micgen/utils"
)

// A Config describes the configuration of a single declared component.
type Config struct {
	Name  string
	API   API
	Model Model

	Attributes          utils.AttributeMap
	ConvertedAttributes ConfigValidator
	ImplicitDependsOn   []string
}

// NativeConfig returns the native config from the given config via its
// converted attributes.
func NativeConfig[T any](conf Config) (T, error) {
	return utils.AssertType[T](conf.ConvertedAttributes)
}

// ResourceName returns the Name of the component.
func (conf *Config) ResourceName() Name {
	return NewName(conf.API, conf.Name)
}

// String returns a verbose representation of the config.
func (conf *Config) String() string {
	return fmt.Sprintf("%s (%s)", conf.ResourceName(), conf.Model)
}

// Validate ensures all parts of the config are valid and returns the names of the components it
// depends on. The converted attributes may fill in derived fields while validating.
func (conf *Config) Validate(path string, platform esp32.Platform) ([]string, error) {
	if conf.Name == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "id")
	}
	if err := ValidateID(conf.Name); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if err := conf.API.Validate(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if err := conf.Model.Validate(); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if conf.ConvertedAttributes == nil {
		return nil, nil
	}
	deps, err := conf.ConvertedAttributes.Validate(path, platform)
	if err != nil {
		return nil, err
	}
	conf.ImplicitDependsOn = deps
	return deps, nil
}

// A ConfigValidator validates a configuration against the target chip and also
// returns dependencies that were implicitly discovered.
type ConfigValidator interface {
	Validate(path string, platform esp32.Platform) ([]string, error)
}

// A ParentedConfig references a parent component. When the reference is left empty the
// configuration loader fills it in with the only declared component of ParentAPI.
type ParentedConfig interface {
	ParentAPI() API
	ParentName() string
	SetParentName(name string)
}

// An AttributeUnmarshaler decodes itself from a raw attribute value. Types implementing it on their
// pointer receiver are decoded through it by TransformAttributeMap.
type AttributeUnmarshaler interface {
	UnmarshalAttribute(raw interface{}) error
}

var attributeUnmarshalerType = reflect.TypeOf((*AttributeUnmarshaler)(nil)).Elem()

func attributeUnmarshalerHook(from, to reflect.Value) (interface{}, error) {
	if !from.IsValid() {
		return nil, nil
	}
	if !reflect.PointerTo(to.Type()).Implements(attributeUnmarshalerType) {
		return from.Interface(), nil
	}
	out := reflect.New(to.Type())
	//nolint:forcetypeassert
	if err := out.Interface().(AttributeUnmarshaler).UnmarshalAttribute(from.Interface()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

// wholeNumberHook refuses to truncate a fractional number into an integer field.
func wholeNumberHook(from, to reflect.Value) (interface{}, error) {
	if !from.IsValid() {
		return nil, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return from.Interface(), nil
	}
	f := from.Float()
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 || to.OverflowInt(int64(f)) {
			return nil, errors.Errorf("%v is not a whole number in range", f)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != math.Trunc(f) || f < 0 || f >= 1<<64 || to.OverflowUint(uint64(f)) {
			return nil, errors.Errorf("%v is not a whole number in range", f)
		}
	default:
	}
	return from.Interface(), nil
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// Keys that do not map to a field of T are rejected, one error per key.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     forResult,
		Metadata:   &md,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(attributeUnmarshalerHook, wholeNumberHook),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, err
	}
	if len(md.Unused) == 0 {
		return out, nil
	}
	sort.Strings(md.Unused)
	var errs error
	for _, key := range md.Unused {
		errs = multierr.Append(errs, utils.NewInvalidOptionError(key))
	}
	return out, errs
}
