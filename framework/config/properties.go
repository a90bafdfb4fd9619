package config

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigLoadError reports a configuration resource that could not be
// opened, read, or parsed.
type ConfigLoadError struct {
	Resource string
	Err      error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("config: load %q: %v", e.Resource, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// Properties is an ordered, read-only key/value mapping.
// The zero value is an empty set.
type Properties struct {
	keys   []string
	values map[string]string
}

// NewProperties builds Properties from alternating key/value pairs.
//
//	props := config.NewProperties("scanPackage", "app", "app.port", "9000")
func NewProperties(kv ...string) *Properties {
	p := &Properties{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.set(kv[i], kv[i+1])
	}
	return p
}

// set keeps the first position of a key and the last value.
func (p *Properties) set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key.
func (p *Properties) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// GetDefault returns the value for key, or fallback when absent.
func (p *Properties) GetDefault(key, fallback string) string {
	if v, ok := p.Get(key); ok {
		return v
	}
	return fallback
}

// Keys returns the keys in the order they first appeared.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Map returns a copy of the mapping.
func (p *Properties) Map() map[string]string {
	out := make(map[string]string, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// ── Loading ──────────────────────────────────────────────────────────────────

// Load opens resource inside fsys and parses it. Files ending in .yaml or
// .yml are read as YAML; everything else as key=value lines.
//
//	props, err := config.Load(os.DirFS("resources"), "application.properties")
func Load(fsys fs.FS, resource string) (*Properties, error) {
	f, err := fsys.Open(resource)
	if err != nil {
		return nil, &ConfigLoadError{Resource: resource, Err: err}
	}
	defer f.Close()

	var props *Properties
	switch strings.ToLower(path.Ext(resource)) {
	case ".yaml", ".yml":
		props, err = ParseYAML(f)
	default:
		props, err = ParseProperties(f)
	}
	if err != nil {
		return nil, &ConfigLoadError{Resource: resource, Err: err}
	}
	return props, nil
}

// ParseProperties reads key=value lines. Keys and values are trimmed,
// blank lines and lines starting with '#' or '!' are comments, and lines
// without '=' or with an empty key are ignored.
func ParseProperties(r io.Reader) (*Properties, error) {
	props := &Properties{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		props.set(key, strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// ParseYAML reads a YAML document and flattens nested mappings into dotted
// keys in document order. Sequences of scalars become comma-joined values.
func ParseYAML(r io.Reader) (*Properties, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &Properties{}, nil
		}
		return nil, err
	}

	props := &Properties{}
	if len(doc.Content) == 0 {
		return props, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml root must be a mapping, got %s", kindName(root.Kind))
	}
	if err := flatten(props, "", root); err != nil {
		return nil, err
	}
	return props, nil
}

func flatten(props *Properties, prefix string, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.TrimSpace(node.Content[i].Value)
		if prefix != "" {
			key = prefix + "." + key
		}
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.MappingNode:
			if err := flatten(props, key, value); err != nil {
				return err
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("key %q: only scalar sequences are supported", key)
				}
				items = append(items, strings.TrimSpace(item.Value))
			}
			props.set(key, strings.Join(items, ","))
		case yaml.AliasNode:
			if value.Alias == nil || value.Alias.Kind != yaml.ScalarNode {
				return fmt.Errorf("key %q: unsupported alias", key)
			}
			props.set(key, strings.TrimSpace(value.Alias.Value))
		default:
			props.set(key, strings.TrimSpace(value.Value))
		}
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
