package calcdoc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// InputKind selects the control rendered for an input.
type InputKind string

const (
	KindText   InputKind = "text"
	KindNumber InputKind = "number"
	KindChoice InputKind = "choice"
)

// OutputFormat controls how the evaluator renders a computed value.
type OutputFormat string

const (
	FormatRaw      OutputFormat = "raw"
	FormatCurrency OutputFormat = "currency"
	FormatPercent  OutputFormat = "percent"
)

// ToolSchema is the canonical description of one calculator widget.
type ToolSchema struct {
	ID      string       `json:"id,omitempty"`
	Name    string       `json:"name,omitempty"`
	Title   string       `json:"title,omitempty"`
	Theme   string       `json:"theme,omitempty"`
	Inputs  []InputSpec  `json:"inputs,omitempty"`
	Outputs []OutputSpec `json:"outputs,omitempty"`
}

// InputSpec describes one input field. Min and Step only apply to KindNumber;
// nil means the default (0 and 1).
type InputSpec struct {
	Name    string    `json:"name"`
	Label   string    `json:"label,omitempty"`
	Kind    InputKind `json:"kind,omitempty"`
	Options []string  `json:"options,omitempty"`
	Min     *float64  `json:"min,omitempty"`
	Step    *float64  `json:"step,omitempty"`
}

// OutputSpec describes one output placeholder.
type OutputSpec struct {
	Name   string       `json:"name"`
	Label  string       `json:"label,omitempty"`
	Format OutputFormat `json:"format,omitempty"`
}

// Default numeric field seeds.
const (
	DefaultMin  = 0.0
	DefaultStep = 1.0
)

// MinValue returns Min or DefaultMin.
func (in InputSpec) MinValue() float64 {
	if in.Min == nil {
		return DefaultMin
	}
	return *in.Min
}

// StepValue returns Step or DefaultStep.
func (in InputSpec) StepValue() float64 {
	if in.Step == nil {
		return DefaultStep
	}
	return *in.Step
}

// DeriveID turns free text into a slug: lower case, every run of characters outside
// [a-z0-9] collapsed to a single "-", no leading or trailing "-".
// The result is a pure function of s, so repeated builds derive the same id.
func DeriveID(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// ResolveID returns the explicit id, or one derived from Title, then Name.
// ErrSchemaIncomplete is returned when none yields a usable id.
func (s ToolSchema) ResolveID() (string, error) {
	if id := strings.TrimSpace(s.ID); id != "" {
		return id, nil
	}
	for _, src := range []string{s.Title, s.Name} {
		if id := DeriveID(src); id != "" {
			return id, nil
		}
	}
	return "", ErrSchemaIncomplete
}

// Normalize returns a copy with the id resolved and every default filled in:
// labels fall back to names, inputs with options become choices, formats default to raw.
func (s ToolSchema) Normalize() (ToolSchema, error) {
	id, err := s.ResolveID()
	if err != nil {
		return ToolSchema{}, err
	}
	out := s
	out.ID = id
	if out.Theme == "" {
		out.Theme = ThemeDefault
	}
	out.Inputs = make([]InputSpec, len(s.Inputs))
	for i, in := range s.Inputs {
		if in.Label == "" {
			in.Label = in.Name
		}
		if in.Kind == "" {
			switch {
			case len(in.Options) > 0:
				in.Kind = KindChoice
			default:
				in.Kind = KindText
			}
		}
		in.Options = append([]string(nil), in.Options...)
		out.Inputs[i] = in
	}
	out.Outputs = make([]OutputSpec, len(s.Outputs))
	for i, o := range s.Outputs {
		if o.Label == "" {
			o.Label = o.Name
		}
		if o.Format == "" {
			o.Format = FormatRaw
		}
		out.Outputs[i] = o
	}
	return out, nil
}

var explicitIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// Validate checks a normalized schema: attribute-safe id, unique input and output
// names, options present exactly for choice inputs, known kinds and formats.
func (s ToolSchema) Validate() error {
	if !explicitIDPattern.MatchString(s.ID) {
		return &ParseError{Reason: fmt.Sprintf("id %q is not slug-safe", s.ID)}
	}
	seen := make(map[string]struct{}, len(s.Inputs))
	for i, in := range s.Inputs {
		if in.Name == "" {
			return &ParseError{Reason: fmt.Sprintf("inputs[%d]: empty name", i)}
		}
		if _, dup := seen[in.Name]; dup {
			return &ParseError{Reason: fmt.Sprintf("inputs[%d]: duplicate name %q", i, in.Name)}
		}
		seen[in.Name] = struct{}{}
		switch in.Kind {
		case KindChoice:
			if len(in.Options) == 0 {
				return &ParseError{Reason: fmt.Sprintf("input %q: choice without options", in.Name)}
			}
		case KindText, KindNumber:
			if len(in.Options) > 0 {
				return &ParseError{Reason: fmt.Sprintf("input %q: options on %s input", in.Name, in.Kind)}
			}
		default:
			return &ParseError{Reason: fmt.Sprintf("input %q: unknown kind %q", in.Name, in.Kind)}
		}
		if in.Step != nil && *in.Step <= 0 {
			return &ParseError{Reason: fmt.Sprintf("input %q: step must be positive", in.Name)}
		}
	}
	seen = make(map[string]struct{}, len(s.Outputs))
	for i, o := range s.Outputs {
		if o.Name == "" {
			return &ParseError{Reason: fmt.Sprintf("outputs[%d]: empty name", i)}
		}
		if _, dup := seen[o.Name]; dup {
			return &ParseError{Reason: fmt.Sprintf("outputs[%d]: duplicate name %q", i, o.Name)}
		}
		seen[o.Name] = struct{}{}
		switch o.Format {
		case FormatRaw, FormatCurrency, FormatPercent:
		default:
			return &ParseError{Reason: fmt.Sprintf("output %q: unknown format %q", o.Name, o.Format)}
		}
	}
	return nil
}

// UnmarshalJSON accepts the legacy keys still found in deployed documents
// ("title_en" for title, "type" for kind).
func (s *ToolSchema) UnmarshalJSON(data []byte) error {
	var b toolBlock
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*s = b.toSchema()
	return nil
}

// toolBlock is the wire form of an embedded tool definition. It drives both the
// JSON Schema used for layer 1 validation and decoding.
type toolBlock struct {
	ID      string        `json:"id,omitempty" description:"Stable widget id; derived from title when absent"`
	Name    string        `json:"name,omitempty" description:"Fallback source for the derived id"`
	Title   string        `json:"title,omitempty" description:"Widget heading"`
	TitleEN string        `json:"title_en,omitempty" description:"Legacy heading key"`
	Theme   string        `json:"theme,omitempty" description:"Color theme: default, blue, amber, green, rose, slate"`
	Inputs  []inputBlock  `json:"inputs,omitempty"`
	Outputs []outputBlock `json:"outputs,omitempty"`
}

type inputBlock struct {
	Name    string   `json:"name" description:"Binding name (data-var)"`
	Label   string   `json:"label,omitempty"`
	Kind    string   `json:"kind,omitempty" enum:"text,number,choice"`
	Type    string   `json:"type,omitempty" description:"Legacy kind key"`
	Options []string `json:"options,omitempty" description:"Choice values, rendered in order"`
	Min     *float64 `json:"min,omitempty"`
	Step    *float64 `json:"step,omitempty"`
}

type outputBlock struct {
	Name   string `json:"name" description:"Binding name (data-itb-output)"`
	Label  string `json:"label,omitempty"`
	Format string `json:"format,omitempty" enum:"raw,currency,percent"`
}

func (b toolBlock) toSchema() ToolSchema {
	s := ToolSchema{
		ID:    b.ID,
		Name:  b.Name,
		Title: b.Title,
		Theme: b.Theme,
	}
	if s.Title == "" {
		s.Title = b.TitleEN
	}
	if len(b.Inputs) > 0 {
		s.Inputs = make([]InputSpec, len(b.Inputs))
	}
	for i, in := range b.Inputs {
		kind := InputKind(in.Kind)
		if kind == "" && len(in.Options) == 0 {
			switch in.Type {
			case "number":
				kind = KindNumber
			case "choice", "select":
				kind = KindChoice
			}
		}
		s.Inputs[i] = InputSpec{
			Name:    in.Name,
			Label:   in.Label,
			Kind:    kind,
			Options: in.Options,
			Min:     in.Min,
			Step:    in.Step,
		}
	}
	if len(b.Outputs) > 0 {
		s.Outputs = make([]OutputSpec, len(b.Outputs))
	}
	for i, o := range b.Outputs {
		s.Outputs[i] = OutputSpec{Name: o.Name, Label: o.Label, Format: OutputFormat(o.Format)}
	}
	return s
}
