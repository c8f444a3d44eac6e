package config

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/m5audio/micgen/logging"
	"github.com/m5audio/micgen/resource"
	"github.com/m5audio/micgen/utils"
)

const (
	esp32Section = "esp32"
	idKey        = "id"
	platformKey  = "platform"
)

// Read reads a config from the given file, substituting ${ENV} references, and validates it
// against the chip declared by its esp32 block.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// ReadUnvalidated reads a config from the given file without validating it, so the caller can pick
// the chip to validate against.
func ReadUnvalidated(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return fromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	cfg, err := fromReader(ctx, originalPath, r, logger)
	if err != nil {
		return nil, err
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config from %q", originalPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigFilePath: originalPath,
		paths:          map[string]string{},
	}
	for _, s := range doc.sections {
		if s.name == esp32Section {
			if len(s.entries) != 1 {
				return nil, errors.New("esp32 must be a single mapping")
			}
			esp, err := resource.TransformAttributeMap[ESP32](s.entries[0])
			if err != nil {
				return nil, errors.Wrap(err, "esp32")
			}
			cfg.ESP32 = esp
			continue
		}
		if err := cfg.addSection(s, logger); err != nil {
			return nil, err
		}
	}
	cfg.generateIDs(logger)
	return cfg, nil
}

func (c *Config) addSection(s section, logger logging.Logger) error {
	api := resource.NewComponentAPI(resource.SubtypeName(s.name))
	if !isKnownAPI(api) {
		return errors.Errorf("component %q not found", s.name)
	}
	for idx, entry := range s.entries {
		path := fmt.Sprintf("%s.%d", s.name, idx)
		id, err := optionalString(entry, idKey)
		if err != nil {
			return errors.Wrap(err, path)
		}
		platform, err := optionalString(entry, platformKey)
		if err != nil {
			return errors.Wrap(err, path)
		}
		if platform == "" {
			platform = s.name
		}
		if id != "" {
			if other, ok := c.paths[id]; ok {
				return errors.Errorf("%s: ID %q redefined, it is already used by %s", path, id, other)
			}
			c.paths[id] = path
		}
		c.Components = append(c.Components, resource.Config{
			Name:       id,
			API:        api,
			Model:      resource.NewDefaultModel(platform),
			Attributes: entry.Without(idKey, platformKey),
		})
		c.pendingPaths = append(c.pendingPaths, path)
		logger.Debugw("declared component", "path", path, "platform", platform, "attributes", entry.Keys())
	}
	return nil
}

// generateIDs names every component declared without an id after its section and platform.
// Declared IDs always win over generated ones.
func (c *Config) generateIDs(logger logging.Logger) {
	for idx := range c.Components {
		conf := &c.Components[idx]
		if conf.Name != "" {
			continue
		}
		base := string(conf.API.SubtypeName)
		if conf.Model.Name != base {
			base += "_" + conf.Model.Name
		}
		base += "_id"
		name := base
		for n := 2; ; n++ {
			if _, taken := c.paths[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		conf.Name = name
		c.paths[name] = c.pendingPaths[idx]
		logger.Debugw("generated ID", "id", name, "path", c.pendingPaths[idx])
	}
	c.pendingPaths = nil
}

func isKnownAPI(api resource.API) bool {
	for _, am := range resource.RegisteredModels() {
		if am.API == api {
			return true
		}
	}
	return false
}

func optionalString(entry utils.AttributeMap, key string) (string, error) {
	if !entry.Has(key) {
		return "", nil
	}
	s, ok := entry[key].(string)
	if !ok {
		return "", errors.Errorf("%q must be a string, got %v", key, entry[key])
	}
	return s, nil
}

// document keeps the top level sections in the order they were written.
type document struct {
	sections []section
}

type section struct {
	name    string
	entries []utils.AttributeMap
}

func (d *document) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: config must be a mapping of sections", value.Line)
	}
	seen := map[string]bool{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if seen[key.Value] {
			return errors.Errorf("line %d: section %q is declared twice", key.Line, key.Value)
		}
		seen[key.Value] = true

		s := section{name: key.Value}
		switch val.Kind {
		case yaml.MappingNode:
			var entry utils.AttributeMap
			if err := val.Decode(&entry); err != nil {
				return errors.Wrapf(err, "section %q", key.Value)
			}
			s.entries = []utils.AttributeMap{entry}
		case yaml.SequenceNode:
			if err := val.Decode(&s.entries); err != nil {
				return errors.Wrapf(err, "section %q", key.Value)
			}
		case yaml.ScalarNode:
			if val.Tag != "!!null" {
				return errors.Errorf("line %d: section %q must be a mapping or a list", val.Line, key.Value)
			}
			s.entries = []utils.AttributeMap{{}}
		default:
			return errors.Errorf("line %d: section %q must be a mapping or a list", val.Line, key.Value)
		}
		d.sections = append(d.sections, s)
	}
	return nil
}
