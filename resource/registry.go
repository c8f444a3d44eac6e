package resource

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/utils"
)

type (
	// An APIModel is the tuple that identifies a model implementing an API.
	APIModel struct {
		API   API
		Model Model
	}

	// ToCode emits the statements that instantiate and configure a validated component. Every
	// dependency returned by validation has already been emitted into prog.
	ToCode func(ctx context.Context, prog *codegen.Program, conf Config, logger logging.Logger) error

	// An AttributeMapConverter converts an attribute map into a native config type for a resource.
	AttributeMapConverter[ConfigT any] func(attributes utils.AttributeMap) (ConfigT, error)
)

// A Registration stores how to convert, validate and emit one model. ToCode is mandatory.
type Registration[ConfigT ConfigValidator] struct {
	ToCode ToCode

	// AttributeMapConverter is used to convert raw attributes to the resource's native config.
	// When nil, TransformAttributeMap is used.
	AttributeMapConverter AttributeMapConverter[ConfigT]

	// AttributesType is the flat shape of the attributes as written in a configuration. It is
	// used to publish a JSON schema and defaults to ConfigT.
	AttributesType reflect.Type
}

var (
	registryMu    sync.RWMutex
	registrations = map[APIModel]Registration[ConfigValidator]{}
)

// RegisterComponent registers a model for a component API.
func RegisterComponent[ConfigT ConfigValidator](api API, model Model, reg Registration[ConfigT]) {
	if reg.ToCode == nil {
		panic(errors.Errorf("cannot register a nil ToCode for %s %s", api, model))
	}
	if err := api.Validate(); err != nil {
		panic(err)
	}
	if err := model.Validate(); err != nil {
		panic(err)
	}
	key := APIModel{api, model}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registrations[key]; old {
		panic(errors.Errorf("trying to register two resources with same API and model (%s, %s)", api, model))
	}
	registrations[key] = reg.erase()
}

// DeregisterComponent removes a previously registered model. It is meant for tests.
func DeregisterComponent(api API, model Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registrations, APIModel{api, model})
}

// LookupRegistration looks up a registration by API and model.
func LookupRegistration(api API, model Model) (Registration[ConfigValidator], bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registrations[APIModel{api, model}]
	return reg, ok
}

// RegisteredModels returns every registered API/model pair, sorted by API then model.
func RegisteredModels() []APIModel {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]APIModel, 0, len(registrations))
	for key := range registrations {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].API.String() != out[j].API.String() {
			return out[i].API.String() < out[j].API.String()
		}
		return out[i].Model.String() < out[j].Model.String()
	})
	return out
}

// ConvertAttributes converts the raw attributes of conf into its native config.
func (r Registration[ConfigT]) ConvertAttributes(attributes utils.AttributeMap) (ConfigT, error) {
	if r.AttributeMapConverter != nil {
		return r.AttributeMapConverter(attributes)
	}
	return TransformAttributeMap[ConfigT](attributes)
}

func (r Registration[ConfigT]) erase() Registration[ConfigValidator] {
	attrsType := r.AttributesType
	if attrsType == nil {
		attrsType = reflect.TypeOf((*ConfigT)(nil)).Elem()
		if attrsType.Kind() == reflect.Ptr {
			attrsType = attrsType.Elem()
		}
	}
	return Registration[ConfigValidator]{
		ToCode: r.ToCode,
		AttributeMapConverter: func(attributes utils.AttributeMap) (ConfigValidator, error) {
			native, err := r.ConvertAttributes(attributes)
			if err != nil {
				return nil, err
			}
			return native, nil
		},
		AttributesType: attrsType,
	}
}
