// Package editor backs the node property editor: per-kind parameter
// schemas, form values, validation and applying a form to a node.
package editor

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/b0ase/cashboard/model"
)

var ErrValidation = errors.New("validation failed")

type ParamType string

const (
	Text       ParamType = "text"
	Number     ParamType = "number"
	Currency   ParamType = "currency"
	Percentage ParamType = "percentage"
	Textarea   ParamType = "textarea"
	Select     ParamType = "select"
	Boolean    ParamType = "boolean"
	Date       ParamType = "date"
)

func (t ParamType) numeric() bool {
	return t == Number || t == Currency || t == Percentage
}

type Param struct {
	Key         string    `yaml:"key" json:"key"`
	Label       string    `yaml:"label" json:"label"`
	Type        ParamType `yaml:"type" json:"type"`
	Default     any       `yaml:"default" json:"default,omitempty"`
	Options     []string  `yaml:"options" json:"options,omitempty"`
	Placeholder string    `yaml:"placeholder" json:"placeholder,omitempty"`
	Required    bool      `yaml:"required" json:"required,omitempty"`
	Min         *float64  `yaml:"min" json:"min,omitempty"`
	Max         *float64  `yaml:"max" json:"max,omitempty"`
}

type Schema struct {
	Kind        model.Kind            `yaml:"-" json:"kind"`
	Title       string                `yaml:"title" json:"title"`
	Description string                `yaml:"description" json:"description"`
	Params      []Param               `yaml:"params" json:"params"`
	Workflow    *model.LegacyWorkflow `yaml:"workflow" json:"workflow,omitempty"`
}

//go:embed schemas.yaml
var schemasYAML []byte

var schemas = mustLoad(schemasYAML)

func mustLoad(b []byte) map[model.Kind]Schema {
	var raw map[string]Schema
	if err := yaml.Unmarshal(b, &raw); err != nil {
		panic(fmt.Sprintf("editor: embedded schemas: %v", err))
	}
	out := make(map[model.Kind]Schema, len(raw))
	for k, s := range raw {
		s.Kind = model.Kind(k)
		for i := range s.Params {
			if s.Params[i].Type.numeric() {
				if f, ok := toFloat(s.Params[i].Default); ok {
					s.Params[i].Default = f
				}
			}
		}
		out[s.Kind] = s
	}
	return out
}

// SchemaFor returns the schema for kind; kinds without one get a generic
// name and description form.
func SchemaFor(kind model.Kind) Schema {
	if s, ok := schemas[kind]; ok {
		return s
	}
	title := string(kind)
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	return Schema{
		Kind:        kind,
		Title:       title,
		Description: fmt.Sprintf("Configure %s parameters", kind),
		Params: []Param{
			{Key: "name", Label: "Name", Type: Text, Required: true},
			{Key: "description", Label: "Description", Type: Textarea},
		},
	}
}

// Form is an editor session over one node.
type Form struct {
	NodeID model.ID       `json:"nodeId"`
	Schema Schema         `json:"schema"`
	Values map[string]any `json:"values"`
}

// NewForm fills the schema from the node's params. The name or title field
// starts from the label and description from the node's description when
// the params hold nothing for them.
func NewForm(n model.Node) Form {
	s := SchemaFor(n.Kind)
	vals := make(map[string]any, len(s.Params))
	for _, p := range s.Params {
		if v, ok := n.Params[p.Key]; ok {
			vals[p.Key] = v
			continue
		}
		switch {
		case (p.Key == "name" || p.Key == "title") && n.Label != "":
			vals[p.Key] = n.Label
		case p.Key == "description" && n.Description != "":
			vals[p.Key] = n.Description
		case p.Default != nil:
			vals[p.Key] = p.Default
		default:
			vals[p.Key] = ""
		}
	}
	return Form{NodeID: n.ID, Schema: s, Values: vals}
}

// Validate checks the form values against its schema.
func Validate(f Form) error {
	_, err := Normalize(f.Schema, f.Values)
	return err
}

// FieldError reports one invalid field.
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string { return e.Key + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrValidation }

// Normalize validates values against s and coerces them to their canonical
// Go types: float64 for numbers, bool for booleans, string otherwise. Keys
// outside the schema are passed through untouched.
func Normalize(s Schema, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	var errs []error
	for _, p := range s.Params {
		v, present := values[p.Key]
		if !present || v == nil {
			v = p.Default
		}
		nv, err := coerce(p, v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if nv != nil {
			out[p.Key] = nv
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func coerce(p Param, v any) (any, error) {
	fail := func(format string, args ...any) error {
		return &FieldError{Key: p.Key, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case p.Type.numeric():
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			v = nil
		}
		if v == nil {
			if p.Required {
				return nil, fail("required")
			}
			return nil, nil
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, fail("not a number: %v", v)
		}
		if p.Min != nil && f < *p.Min {
			return nil, fail("must be at least %g", *p.Min)
		}
		if p.Max != nil && f > *p.Max {
			return nil, fail("must be at most %g", *p.Max)
		}
		return f, nil
	case p.Type == Boolean:
		switch b := v.(type) {
		case nil:
			return false, nil
		case bool:
			return b, nil
		case string:
			pb, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fail("not a boolean: %q", b)
			}
			return pb, nil
		}
		return nil, fail("not a boolean: %v", v)
	}

	s := ""
	if v != nil {
		s = fmt.Sprint(v)
	}
	if p.Required && strings.TrimSpace(s) == "" {
		return nil, fail("required")
	}
	switch p.Type {
	case Select:
		if s != "" && !slices.Contains(p.Options, s) {
			return nil, fail("%q is not one of %s", s, strings.Join(p.Options, ", "))
		}
	case Date:
		if s != "" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return nil, fail("date must be YYYY-MM-DD")
			}
		}
	}
	return s, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Apply validates values and merges them into a copy of n. The label
// becomes name, else title, else stays as it was. When the schema has a
// workflow template and the node has none, the template is stored under
// the "workflow" param.
func Apply(n model.Node, values map[string]any) (model.Node, error) {
	s := SchemaFor(n.Kind)
	norm, err := Normalize(s, values)
	if err != nil {
		return n, fmt.Errorf("edit node %s: %w", n.ID, err)
	}
	out := n.Clone()
	if out.Params == nil {
		out.Params = make(map[string]any, len(norm)+1)
	}
	for k, v := range norm {
		out.Params[k] = v
	}
	if name, _ := norm["name"].(string); name != "" {
		out.Label = name
	} else if title, _ := norm["title"].(string); title != "" {
		out.Label = title
	}
	if d, ok := norm["description"].(string); ok {
		out.Description = d
	}
	if _, has := out.Params["workflow"]; !has && s.Workflow != nil {
		out.Params["workflow"] = *s.Workflow
	}
	return out, nil
}
