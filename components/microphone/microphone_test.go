package microphone

import (
	"testing"

	"go.viam.com/test"

	"github.com/m5audio/micgen/codegen"
	"github.com/m5audio/micgen/logging"
)

func TestRegister(t *testing.T) {
	prog := codegen.NewProgram(logging.NewTestLogger(t))
	v, err := prog.NewPvariable(codegen.ID{Name: "mic", Type: codegen.Namespace("i2s_audio").Class("I2SAudioMicrophone")})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, Register(prog, v), test.ShouldBeNil)
	test.That(t, prog.Defines(), test.ShouldResemble, []string{Define})
	test.That(t, All(prog), test.ShouldResemble, []codegen.ID{v.ID})

	test.That(t, Register(prog, nil), test.ShouldNotBeNil)

	undeclared := &codegen.Variable{ID: codegen.ID{Name: "ghost", Type: codegen.Namespace("i2s_audio").Class("I2SAudioMicrophone")}}
	err = Register(prog, undeclared)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `couldn't find ID "ghost"`)
	test.That(t, All(prog), test.ShouldHaveLength, 1)
}

func TestNamed(t *testing.T) {
	test.That(t, Named("kitchen").String(), test.ShouldEqual, "component:microphone/kitchen")
}
