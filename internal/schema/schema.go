// Package schema describes provider forms declaratively: the fields a provider
// exposes, when each field is visible, how values are normalized, and which
// messages validation produces. Schemas are declared in CUE and decoded into
// the Go types below.
package schema

import (
	"slices"
	"strings"

	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Kind is the closed set of field renderers.
type Kind string

const (
	KindText        Kind = "text"
	KindPassword    Kind = "password"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindSwitch      Kind = "switch"
	KindTags        Kind = "tags"
)

// Kinds lists every field kind in declaration order.
var Kinds = []Kind{KindText, KindPassword, KindSelect, KindMultiSelect, KindSwitch, KindTags}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// Condition operators.
const (
	OpTruthy   = "truthy"
	OpFalsy    = "falsy"
	OpEq       = "eq"
	OpIn       = "in"
	OpNonEmpty = "nonempty"
	OpCron     = "cron"
)

// NormalizeSentinelFirst keeps a sentinel entry at the head of a non-empty list.
const NormalizeSentinelFirst = "sentinel_first"

// Condition is a predicate over the draft record. A field is visible only when
// all of its conditions hold.
type Condition struct {
	Field  string   `json:"field"`
	Op     string   `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Eval evaluates c against draft.
func (c Condition) Eval(draft map[string]any) bool {
	v, _ := fieldpath.Get(draft, c.Field)
	switch c.Op {
	case OpTruthy:
		return fieldpath.Truthy(v)
	case OpFalsy:
		return !fieldpath.Truthy(v)
	case OpEq:
		s, _ := v.(string)
		return s == c.Value
	case OpIn:
		s, _ := v.(string)
		return slices.Contains(c.Values, s)
	default:
		return false
	}
}

// All reports whether every condition holds. An empty list holds.
func All(conds []Condition, draft map[string]any) bool {
	for _, c := range conds {
		if !c.Eval(draft) {
			return false
		}
	}
	return true
}

// Field describes one form control.
type Field struct {
	Key             string      `json:"key"`
	Label           string      `json:"label"`
	Type            Kind        `json:"type"`
	Required        bool        `json:"required,omitempty"`
	RequiredMessage string      `json:"required_message,omitempty"`
	Options         []string    `json:"options,omitempty"`
	DisabledOptions []string    `json:"disabled_options,omitempty"`
	MapTo           string      `json:"map_to,omitempty"`
	ShowIf          []Condition `json:"show_if,omitempty"`
	Normalize       string      `json:"normalize,omitempty"`
	Sentinel        string      `json:"sentinel,omitempty"`
}

// WritePath is the path a field's value is stored under.
func (f Field) WritePath() string {
	if f.MapTo != "" {
		return f.MapTo
	}
	return f.Key
}

// Visible reports whether f is shown for draft.
func (f Field) Visible(draft map[string]any) bool {
	return All(f.ShowIf, draft)
}

// OptionDisabled reports whether opt is listed but not selectable.
func (f Field) OptionDisabled(opt string) bool {
	return slices.Contains(f.DisabledOptions, opt)
}

// NormalizeValue applies the field's normalizer to v.
func (f Field) NormalizeValue(v any) any {
	switch f.Normalize {
	case NormalizeSentinelFirst:
		return SentinelFirst(f.Sentinel, fieldpath.Strings(v))
	default:
		return v
	}
}

func (f Field) requiredMessage() string {
	if f.RequiredMessage != "" {
		return f.RequiredMessage
	}
	return f.Label + " is required."
}

// SentinelFirst removes every occurrence of sentinel from list and puts one
// back at the head when a real entry remains. An empty result is [].
func SentinelFirst(sentinel string, list []string) []string {
	out := make([]string, 0, len(list)+1)
	for _, v := range list {
		if v != sentinel {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return out
	}
	return append([]string{sentinel}, out...)
}

// Rule is a cross-field validation check. Its message is reported under Field
// when the check fails and its When conditions hold.
type Rule struct {
	Field   string      `json:"field"`
	Path    string      `json:"path,omitempty"`
	Op      string      `json:"op"`
	Value   string      `json:"value,omitempty"`
	Values  []string    `json:"values,omitempty"`
	Message string      `json:"message"`
	When    []Condition `json:"when,omitempty"`
}

func (r Rule) path() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Field
}

func (r Rule) check(draft map[string]any) bool {
	v, _ := fieldpath.Get(draft, r.path())
	switch r.Op {
	case OpEq:
		s, _ := v.(string)
		return s == r.Value
	case OpIn:
		s, _ := v.(string)
		return slices.Contains(r.Values, s)
	case OpNonEmpty:
		return fieldpath.Truthy(v)
	case OpCron:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		var s types.ScanSchedule
		if err := fieldpath.ToStruct(m, &s); err != nil {
			return false
		}
		return s.Validate() == nil
	default:
		return false
	}
}

// Section groups fields under a heading.
type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// ErrorMap maps a field key to its validation message.
type ErrorMap map[string]string

// Empty reports whether the map holds no errors.
func (e ErrorMap) Empty() bool { return len(e) == 0 }

// Keys returns the failing field keys in sorted order.
func (e ErrorMap) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String joins the messages in key order.
func (e ErrorMap) String() string {
	msgs := make([]string, 0, len(e))
	for _, k := range e.Keys() {
		msgs = append(msgs, k+": "+e[k])
	}
	return strings.Join(msgs, "; ")
}

// Provider is one provider's complete form schema.
type Provider struct {
	Name     string      `json:"name"`
	Defaults types.Cloud `json:"defaults"`
	Sections []Section   `json:"sections"`
	Rules    []Rule      `json:"rules"`
}

// Fields returns every field in section order.
func (p *Provider) Fields() []Field {
	var out []Field
	for _, s := range p.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// Field looks a field up by key.
func (p *Provider) Field(key string) (Field, bool) {
	for _, s := range p.Sections {
		for _, f := range s.Fields {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}

// DefaultRecord returns the provider defaults as a path-addressable record.
func (p *Provider) DefaultRecord() map[string]any {
	m, err := fieldpath.FromStruct(p.Defaults)
	if err != nil {
		// Cloud always encodes.
		return map[string]any{}
	}
	return m
}

// Merge lays overlay over the defaults leaf by leaf and normalizes the
// result. Nested defaults the overlay does not mention survive.
func (p *Provider) Merge(overlay map[string]any) map[string]any {
	return p.Normalize(fieldpath.Merge(p.DefaultRecord(), overlay))
}

// Normalize applies every field normalizer to draft and returns the result.
// draft is not modified.
func (p *Provider) Normalize(draft map[string]any) map[string]any {
	out := draft
	for _, f := range p.Fields() {
		if f.Normalize == "" {
			continue
		}
		v, ok := fieldpath.Get(out, f.WritePath())
		if !ok {
			continue
		}
		out = fieldpath.Set(out, f.WritePath(), f.NormalizeValue(v))
	}
	return out
}

// Validate checks draft and returns every failure. Required checks only apply
// to visible fields; rules run afterwards and never replace a required error
// already reported for the same key.
func (p *Provider) Validate(draft map[string]any) ErrorMap {
	errs := ErrorMap{}
	for _, f := range p.Fields() {
		if !f.Required || !f.Visible(draft) {
			continue
		}
		v, _ := fieldpath.Get(draft, f.WritePath())
		if !fieldpath.Truthy(v) {
			errs[f.Key] = f.requiredMessage()
		}
	}
	for _, r := range p.Rules {
		if _, exists := errs[r.Field]; exists {
			continue
		}
		if !All(r.When, draft) {
			continue
		}
		if !r.check(draft) {
			errs[r.Field] = r.Message
		}
	}
	return errs
}
