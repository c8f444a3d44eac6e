// Package microphone defines the generic microphone capability. Every microphone platform
// registers its generated object here so other components can discover microphones uniformly.
package microphone

import (
	"github.com/pkg/errors"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/resource"
)

// SubtypeName is the configuration section microphones are declared under.
const SubtypeName = resource.SubtypeName("microphone")

// API identifies the microphone component API.
var API = resource.NewComponentAPI(SubtypeName)

// Capability is the name microphones are indexed under in a program.
const Capability = "microphone"

// Define is the preprocessor define that compiles the microphone support in.
const Define = "USE_MICROPHONE"

// Named is a helper for getting the named microphone's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// Register registers an already declared microphone under the microphone capability.
func Register(prog *codegen.Program, v *codegen.Variable) error {
	if v == nil {
		return errors.New("cannot register a nil microphone")
	}
	if _, err := prog.GetVariable(v.ID.Name); err != nil {
		return errors.Wrap(err, "microphone must be declared before it is registered")
	}
	prog.AddDefine(Define)
	prog.RegisterCapability(Capability, v)
	return nil
}

// All returns the IDs of every microphone registered in prog.
func All(prog *codegen.Program) []codegen.ID {
	return prog.Capability(Capability)
}
