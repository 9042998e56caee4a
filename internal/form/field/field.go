// Package field renders schema fields into form controls and turns user
// interactions into new field values. There is one renderer per schema.Kind.
package field

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

var (
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrInvalidOption    = errors.New("invalid option")
)

// SelectPlaceholder labels the empty leading option of single selects.
const SelectPlaceholder = "Select..."

// Input operations.
const (
	OpSet    = "set"
	OpToggle = "toggle"
	OpCommit = "commit"
	OpRemove = "remove"
)

// Input is one user interaction with a control.
type Input struct {
	Op     string   `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Index  int      `json:"index,omitempty"`
}

// Option is one entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Control is the display model of one field.
type Control struct {
	Key       string      `json:"key"`
	WritePath string      `json:"writePath"`
	Label     string      `json:"label"`
	Kind      schema.Kind `json:"kind"`
	InputType string      `json:"inputType,omitempty"`
	Required  bool        `json:"required,omitempty"`
	Value     string      `json:"value,omitempty"`
	Values    []string    `json:"values,omitempty"`
	Options   []Option    `json:"options,omitempty"`
	Checked   bool        `json:"checked,omitempty"`
	Error     string      `json:"error,omitempty"`
	Pending   string      `json:"pending,omitempty"`
}

// Renderer displays a field and applies interactions to its value.
// Implementations are pure: current is never modified.
type Renderer interface {
	Render(f schema.Field, value any, errMsg string) Control
	Apply(f schema.Field, current any, in Input) (any, error)
}

// For returns the renderer for kind.
func For(kind schema.Kind) (Renderer, error) {
	switch kind {
	case schema.KindText:
		return textRenderer{inputType: "text"}, nil
	case schema.KindPassword:
		return passwordRenderer{}, nil
	case schema.KindSelect:
		return selectRenderer{}, nil
	case schema.KindMultiSelect:
		return multiSelectRenderer{}, nil
	case schema.KindSwitch:
		return switchRenderer{}, nil
	case schema.KindTags:
		return tagsRenderer{}, nil
	default:
		return nil, fmt.Errorf("no renderer for kind %q", kind)
	}
}

func base(f schema.Field, errMsg string) Control {
	return Control{
		Key:       f.Key,
		WritePath: f.WritePath(),
		Label:     f.Label,
		Kind:      f.Type,
		Required:  f.Required,
		Error:     errMsg,
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func unsupported(f schema.Field, in Input) error {
	return fmt.Errorf("%s on %s field %q: %w", in.Op, f.Type, f.Key, ErrUnsupportedInput)
}

func checkOption(f schema.Field, v string) error {
	if !slices.Contains(f.Options, v) {
		return fmt.Errorf("%q is not an option of %q: %w", v, f.Key, ErrInvalidOption)
	}
	if f.OptionDisabled(v) {
		return fmt.Errorf("%q is not selectable for %q: %w", v, f.Key, ErrInvalidOption)
	}
	return nil
}

type textRenderer struct {
	inputType string
}

func (r textRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.InputType = r.inputType
	c.Value = stringValue(value)
	return c
}

func (textRenderer) Apply(f schema.Field, _ any, in Input) (any, error) {
	if in.Op != OpSet {
		return nil, unsupported(f, in)
	}
	return in.Value, nil
}

// passwordRenderer never displays a stored secret. Posting the mask back
// leaves the value as it was.
type passwordRenderer struct{}

func (passwordRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.InputType = "password"
	if stringValue(value) != "" {
		c.Value = types.MaskedSecret
	}
	return c
}

func (passwordRenderer) Apply(f schema.Field, current any, in Input) (any, error) {
	if in.Op != OpSet {
		return nil, unsupported(f, in)
	}
	if in.Value == types.MaskedSecret {
		return current, nil
	}
	return in.Value, nil
}

type selectRenderer struct{}

func (selectRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.Value = stringValue(value)
	c.Options = make([]Option, 0, len(f.Options)+1)
	c.Options = append(c.Options, Option{Value: "", Label: SelectPlaceholder, Selected: c.Value == ""})
	for _, o := range f.Options {
		c.Options = append(c.Options, Option{
			Value:    o,
			Label:    o,
			Selected: o == c.Value,
			Disabled: f.OptionDisabled(o),
		})
	}
	return c
}

func (selectRenderer) Apply(f schema.Field, _ any, in Input) (any, error) {
	if in.Op != OpSet {
		return nil, unsupported(f, in)
	}
	if in.Value == "" {
		return "", nil
	}
	if err := checkOption(f, in.Value); err != nil {
		return nil, err
	}
	return in.Value, nil
}

type multiSelectRenderer struct{}

func (multiSelectRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.Values = fieldpath.Strings(value)
	c.Options = make([]Option, 0, len(f.Options))
	for _, o := range f.Options {
		c.Options = append(c.Options, Option{
			Value:    o,
			Label:    o,
			Selected: slices.Contains(c.Values, o),
			Disabled: f.OptionDisabled(o),
		})
	}
	return c
}

func (multiSelectRenderer) Apply(f schema.Field, current any, in Input) (any, error) {
	list := fieldpath.Strings(current)
	switch in.Op {
	case OpToggle:
		if i := slices.Index(list, in.Value); i >= 0 {
			return slices.Delete(list, i, i+1), nil
		}
		if err := checkOption(f, in.Value); err != nil {
			return nil, err
		}
		return append(list, in.Value), nil
	case OpSet:
		out := make([]string, 0, len(in.Values))
		for _, v := range in.Values {
			if err := checkOption(f, v); err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, unsupported(f, in)
	}
}

type switchRenderer struct{}

func (switchRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.InputType = "checkbox"
	c.Checked = fieldpath.Truthy(value)
	return c
}

func (switchRenderer) Apply(f schema.Field, current any, in Input) (any, error) {
	switch in.Op {
	case OpToggle:
		return !fieldpath.Truthy(current), nil
	case OpSet:
		b, err := strconv.ParseBool(in.Value)
		if err != nil {
			return nil, fmt.Errorf("switch %q: %w", f.Key, err)
		}
		return b, nil
	default:
		return nil, unsupported(f, in)
	}
}

type tagsRenderer struct{}

func (tagsRenderer) Render(f schema.Field, value any, errMsg string) Control {
	c := base(f, errMsg)
	c.InputType = "text"
	c.Values = fieldpath.Strings(value)
	return c
}

func (tagsRenderer) Apply(f schema.Field, current any, in Input) (any, error) {
	list := fieldpath.Strings(current)
	if list == nil {
		list = []string{}
	}
	switch in.Op {
	case OpCommit:
		tag := strings.TrimSpace(in.Value)
		if tag == "" {
			return list, nil
		}
		return append(list, tag), nil
	case OpRemove:
		if in.Index < 0 || in.Index >= len(list) {
			return nil, fmt.Errorf("tag index %d out of range for %q: %w", in.Index, f.Key, ErrUnsupportedInput)
		}
		return slices.Delete(list, in.Index, in.Index+1), nil
	default:
		return nil, unsupported(f, in)
	}
}
