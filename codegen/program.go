// Package codegen builds the ordered list of C++ statements that instantiate and configure the
// firmware components declared in a configuration.
package codegen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/m5audio/micgen/logging"
)

// App is the global application object components are registered with.
const App = "App"

// A Program accumulates everything emitted for a configuration, in order.
type Program struct {
	logger logging.Logger

	includes     []string
	defines      []string
	globals      []string
	statements   []Statement
	variables    map[string]*Variable
	capabilities map[string][]ID
	features     map[string]bool
}

// NewProgram returns an empty program.
func NewProgram(logger logging.Logger) *Program {
	return &Program{
		logger:       logger,
		includes:     []string{"esphome.h"},
		variables:    map[string]*Variable{},
		capabilities: map[string][]ID{},
		features:     map[string]bool{},
	}
}

// SetFeature turns an optional emission feature on or off. Features gate emission paths that are
// not yet supported by every firmware release.
func (p *Program) SetFeature(name string, enabled bool) {
	p.features[name] = enabled
}

// Feature reports whether an optional emission feature is enabled. Unknown features are off.
func (p *Program) Feature(name string) bool {
	return p.features[name]
}

// NewPvariable declares a global pointer for id and allocates it at the current position of
// setup. An ID may only be declared once.
func (p *Program) NewPvariable(id ID, args ...interface{}) (*Variable, error) {
	if id.Name == "" {
		return nil, errors.New("cannot declare a variable without a name")
	}
	if _, ok := p.variables[id.Name]; ok {
		return nil, errors.Errorf("ID %q redefined", id.Name)
	}
	exprs := make([]Expression, 0, len(args))
	for _, arg := range args {
		exprs = append(exprs, ValueOf(arg))
	}
	v := &Variable{ID: id}
	p.variables[id.Name] = v
	p.globals = append(p.globals, fmt.Sprintf("%s *%s;", id.Type, id.Name))
	p.Add(Assignment{ID: id, Args: exprs})
	p.logger.Debugw("declared variable", "id", id.Name, "type", id.Type)
	return v, nil
}

// GetVariable returns a previously declared variable.
func (p *Program) GetVariable(name string) (*Variable, error) {
	v, ok := p.variables[name]
	if !ok {
		return nil, errors.Errorf("couldn't find ID %q, it must be declared before it is used", name)
	}
	return v, nil
}

// Add appends a statement to setup.
func (p *Program) Add(stmt Statement) {
	p.statements = append(p.statements, stmt)
}

// AddDefine adds a preprocessor define once.
func (p *Program) AddDefine(name string) {
	for _, d := range p.defines {
		if d == name {
			return
		}
	}
	p.defines = append(p.defines, name)
}

// ComponentOptions are the settings every registered component accepts.
type ComponentOptions struct {
	SetupPriority *float64
}

// RegisterComponent hands the variable's lifecycle to the application.
func (p *Program) RegisterComponent(v *Variable, opts ComponentOptions) {
	if opts.SetupPriority != nil {
		p.Add(v.Call("set_setup_priority", *opts.SetupPriority))
	}
	p.Add(Call{Receiver: App, Method: "register_component", Args: []Expression{v}})
}

// RegisterParented attaches v as a child of the already declared parent.
func (p *Program) RegisterParented(v *Variable, parent string) error {
	pv, err := p.GetVariable(parent)
	if err != nil {
		return err
	}
	p.Add(v.Call("set_parent", pv))
	return nil
}

// RegisterCapability indexes v under a capability name so consumers can find every provider.
func (p *Program) RegisterCapability(capability string, v *Variable) {
	p.capabilities[capability] = append(p.capabilities[capability], v.ID)
}

// Capability returns the IDs registered under a capability, in registration order.
func (p *Program) Capability(capability string) []ID {
	return append([]ID(nil), p.capabilities[capability]...)
}

// Statements returns the setup statements in emission order.
func (p *Program) Statements() []Statement {
	return append([]Statement(nil), p.statements...)
}

// Lines returns the rendered setup statements in emission order.
func (p *Program) Lines() []string {
	lines := make([]string, 0, len(p.statements))
	for _, stmt := range p.statements {
		lines = append(lines, stmt.Statement())
	}
	return lines
}

// Defines returns the preprocessor defines in the order they were added.
func (p *Program) Defines() []string {
	return append([]string(nil), p.defines...)
}

// Render writes the program as a C++ translation unit.
func (p *Program) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "// Auto generated code by micgen")
	for _, d := range p.defines {
		fmt.Fprintf(bw, "#define %s\n", d)
	}
	for _, h := range p.includes {
		fmt.Fprintf(bw, "#include \"%s\"\n", h)
	}
	fmt.Fprintln(bw, "using namespace esphome;")
	fmt.Fprintln(bw)
	for _, g := range p.globals {
		fmt.Fprintln(bw, g)
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "void setup() {")
	for _, line := range p.Lines() {
		fmt.Fprintf(bw, "  %s\n", line)
	}
	fmt.Fprintf(bw, "  %s.setup();\n", App)
	fmt.Fprintln(bw, "}")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "void loop() {")
	fmt.Fprintf(bw, "  %s.loop();\n", App)
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
