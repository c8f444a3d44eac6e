package codegen

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"github.com/m5audio/micgen/logging"
)

var busNS = Namespace("i2s_audio")

func TestNewPvariable(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))

	bus, err := prog.NewPvariable(ID{Name: "i2s_bus", Type: busNS.Class("I2SAudioComponent")})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bus.Expr(), test.ShouldEqual, "i2s_bus")

	_, err = prog.NewPvariable(ID{Name: "i2s_bus", Type: busNS.Class("I2SAudioComponent")})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `ID "i2s_bus" redefined`)

	_, err = prog.NewPvariable(ID{Type: busNS.Class("I2SAudioComponent")})
	test.That(t, err, test.ShouldNotBeNil)

	got, err := prog.GetVariable("i2s_bus")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, bus)

	_, err = prog.GetVariable("nope")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `couldn't find ID "nope"`)
}

func TestStatementOrder(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))

	bus, err := prog.NewPvariable(ID{Name: "i2s_bus", Type: busNS.Class("I2SAudioComponent")})
	test.That(t, err, test.ShouldBeNil)
	prog.RegisterComponent(bus, ComponentOptions{})

	mic, err := prog.NewPvariable(ID{Name: "mic", Type: busNS.Class("I2SAudioMicrophone")})
	test.That(t, err, test.ShouldBeNil)
	priority := 300.0
	prog.RegisterComponent(mic, ComponentOptions{SetupPriority: &priority})
	test.That(t, prog.RegisterParented(mic, "i2s_bus"), test.ShouldBeNil)
	prog.Add(mic.Call("set_sample_rate", 16000))
	prog.Add(mic.Call("set_pdm", false))
	prog.Add(mic.Call("set_channel", GlobalNamespace.Enum("I2S_CHANNEL_FMT_ONLY_RIGHT")))
	prog.Add(mic.Call("set_name", "kitchen"))

	expected := []string{
		"i2s_bus = new i2s_audio::I2SAudioComponent();",
		"App.register_component(i2s_bus);",
		"mic = new i2s_audio::I2SAudioMicrophone();",
		"mic->set_setup_priority(300.0f);",
		"App.register_component(mic);",
		"mic->set_parent(i2s_bus);",
		"mic->set_sample_rate(16000);",
		"mic->set_pdm(false);",
		"mic->set_channel(I2S_CHANNEL_FMT_ONLY_RIGHT);",
		`mic->set_name("kitchen");`,
	}
	if diff := cmp.Diff(expected, prog.Lines()); diff != "" {
		t.Errorf("unexpected statements (-want +got):\n%s", diff)
	}
	test.That(t, len(prog.Statements()), test.ShouldEqual, len(expected))
}

func TestRegisterParentedUnknownParent(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))
	mic, err := prog.NewPvariable(ID{Name: "mic", Type: busNS.Class("I2SAudioMicrophone")})
	test.That(t, err, test.ShouldBeNil)

	err = prog.RegisterParented(mic, "missing_bus")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, prog.Lines(), test.ShouldHaveLength, 1)
}

func TestCapabilitiesAndDefines(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))
	a, err := prog.NewPvariable(ID{Name: "a", Type: busNS.Class("I2SAudioMicrophone")})
	test.That(t, err, test.ShouldBeNil)
	b, err := prog.NewPvariable(ID{Name: "b", Type: busNS.Class("I2SAudioMicrophone")})
	test.That(t, err, test.ShouldBeNil)

	prog.RegisterCapability("microphone", a)
	prog.RegisterCapability("microphone", b)
	test.That(t, prog.Capability("microphone"), test.ShouldResemble, []ID{a.ID, b.ID})
	test.That(t, prog.Capability("speaker"), test.ShouldBeEmpty)

	prog.AddDefine("USE_MICROPHONE")
	prog.AddDefine("USE_MICROPHONE")
	test.That(t, prog.Defines(), test.ShouldResemble, []string{"USE_MICROPHONE"})
}

func TestRender(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))
	prog.AddDefine("USE_MICROPHONE")
	bus, err := prog.NewPvariable(ID{Name: "i2s_bus", Type: busNS.Class("I2SAudioComponent")})
	test.That(t, err, test.ShouldBeNil)
	prog.RegisterComponent(bus, ComponentOptions{})

	var buf bytes.Buffer
	test.That(t, prog.Render(&buf), test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "#define USE_MICROPHONE\n#include \"esphome.h\"\n")
	test.That(t, out, test.ShouldContainSubstring, "i2s_audio::I2SAudioComponent *i2s_bus;\n")
	test.That(t, out, test.ShouldContainSubstring, "void setup() {\n  i2s_bus = new i2s_audio::I2SAudioComponent();\n"+
		"  App.register_component(i2s_bus);\n  App.setup();\n}\n")
	test.That(t, out, test.ShouldEndWith, "void loop() {\n  App.loop();\n}\n")
}

func TestValueOf(t *testing.T) {
	test.That(t, ValueOf(16).Expr(), test.ShouldEqual, "16")
	test.That(t, ValueOf(int64(-3)).Expr(), test.ShouldEqual, "-3")
	test.That(t, ValueOf(uint32(7)).Expr(), test.ShouldEqual, "7")
	test.That(t, ValueOf(1.5).Expr(), test.ShouldEqual, "1.5f")
	test.That(t, ValueOf(true).Expr(), test.ShouldEqual, "true")
	test.That(t, ValueOf(`say "hi"`).Expr(), test.ShouldEqual, `"say \"hi\""`)
	test.That(t, func() { ValueOf(struct{}{}) }, test.ShouldPanic)
}

func TestFeatures(t *testing.T) {
	prog := NewProgram(logging.NewTestLogger(t))
	test.That(t, prog.Feature("pin_wiring"), test.ShouldBeFalse)
	prog.SetFeature("pin_wiring", true)
	test.That(t, prog.Feature("pin_wiring"), test.ShouldBeTrue)
	prog.SetFeature("pin_wiring", false)
	test.That(t, prog.Feature("pin_wiring"), test.ShouldBeFalse)
}
