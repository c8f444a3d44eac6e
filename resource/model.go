package resource

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// ModelFamily is a family of related models.
type ModelFamily struct {
	Namespace string
	Family    string
}

// DefaultModelFamily is the family of every model built into this repository.
var DefaultModelFamily = ModelFamily{Namespace: "esphome", Family: "builtin"}

func (f ModelFamily) String() string {
	return fmt.Sprintf("%s:%s", f.Namespace, f.Family)
}

// Model represents an individual model within a family. In a configuration it is selected with
// the platform key.
type Model struct {
	ModelFamily
	Name string
}

var modelNameRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

// NewDefaultModel creates a new Model in the default family.
func NewDefaultModel(name string) Model {
	return Model{DefaultModelFamily, name}
}

// Validate ensures that important fields exist and are valid.
func (m Model) Validate() error {
	if m.Namespace == "" || m.Family == "" {
		return errors.New("model family for resource missing")
	}
	if !modelNameRegex.MatchString(m.Name) {
		return errors.Errorf("model name %q must be lowercase letters, digits or underscores", m.Name)
	}
	return nil
}

func (m Model) String() string {
	return fmt.Sprintf("%s:%s", m.ModelFamily, m.Name)
}
