// Package resource names the kinds of firmware components a configuration can declare and holds
// the registry that maps each model to its validator and code emitter.
package resource

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// TypeName is the type of a resource; only components are generated today.
type TypeName string

// SubtypeName is the configuration section a resource is declared under, e.g. "microphone".
type SubtypeName string

// ResourceTypeComponent is the type of every generated firmware component.
const ResourceTypeComponent = TypeName("component")

// API identifies a kind of component independent of the model implementing it.
type API struct {
	Type        TypeName
	SubtypeName SubtypeName
}

// NewComponentAPI returns the component API for a configuration section.
func NewComponentAPI(subtype SubtypeName) API {
	return API{Type: ResourceTypeComponent, SubtypeName: subtype}
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if a.Type == "" {
		return errors.New("type field for resource missing")
	}
	if a.SubtypeName == "" {
		return errors.New("subtype field for resource missing")
	}
	return nil
}

func (a API) String() string {
	return fmt.Sprintf("%s:%s", a.Type, a.SubtypeName)
}

// Name identifies a single declared component.
type Name struct {
	API  API
	Name string
}

// NewName returns the name of a component of the given API.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

func (n Name) String() string {
	return fmt.Sprintf("%s/%s", n.API, n.Name)
}

// ValidIDRegex matches identifiers that are usable as C++ variable names.
var ValidIDRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var reservedIDs = map[string]struct{}{
	"App": {}, "auto": {}, "bool": {}, "break": {}, "case": {}, "char": {}, "class": {}, "const": {},
	"delete": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "float": {}, "for": {}, "if": {},
	"int": {}, "loop": {}, "namespace": {}, "new": {}, "return": {}, "setup": {}, "static": {},
	"struct": {}, "switch": {}, "this": {}, "void": {}, "while": {},
}

// ValidateID checks that an identifier can become a generated variable name.
func ValidateID(id string) error {
	if !ValidIDRegex.MatchString(id) {
		return errors.Errorf("ID %q must start with a letter or underscore and contain only letters, digits and underscores", id)
	}
	if _, ok := reservedIDs[id]; ok {
		return errors.Errorf("ID %q is reserved and cannot be used", id)
	}
	return nil
}
