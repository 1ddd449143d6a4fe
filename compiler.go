package calcdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Public attribute names of compiled widgets. Host styling and the runtime rely on them.
const (
	AttrCalculator = "data-itb-calculator"
	AttrTheme      = "data-itb-theme"
	AttrVar        = "data-var"
	AttrOutput     = "data-itb-output"
	AttrFormat     = "data-itb-format"
	AttrResults    = "data-itb-results"

	ClassInputs  = "itb-inputs"
	ClassOutputs = "itb-outputs"

	// OutputPlaceholder is shown by every output until its first settled pass.
	OutputPlaceholder = "-"
)

// WidgetMarkup is the compiled, immutable markup of one tool schema.
type WidgetMarkup struct {
	ToolID string
	HTML   string
}

func (m WidgetMarkup) String() string { return m.HTML }

// Compiler turns tool schemas into widget markup. Results are cached by schema
// fingerprint so repeated definitions render once.
type Compiler struct {
	cache *lru.Cache[string, WidgetMarkup]
}

// DefaultCompilerCacheSize is the number of compiled widgets a Compiler keeps.
const DefaultCompilerCacheSize = 256

// NewCompiler creates a Compiler keeping up to cacheSize compiled widgets.
// cacheSize <= 0 disables caching.
func NewCompiler(cacheSize int) (*Compiler, error) {
	c := &Compiler{}
	if cacheSize > 0 {
		cache, err := lru.New[string, WidgetMarkup](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("compiler cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

var defaultCompiler = &Compiler{}

// Compile renders schema with an uncached compiler.
func Compile(schema ToolSchema) (WidgetMarkup, error) {
	return defaultCompiler.Compile(schema)
}

// Compile renders schema. It has no side effects besides the cache; a schema with no
// usable identity fails with ErrSchemaIncomplete. Empty inputs or outputs render
// empty sections.
func (c *Compiler) Compile(schema ToolSchema) (WidgetMarkup, error) {
	s, err := schema.Normalize()
	if err != nil {
		return WidgetMarkup{}, err
	}
	key, err := fingerprint(s)
	if err != nil {
		return WidgetMarkup{}, err
	}
	if c.cache != nil {
		if m, ok := c.cache.Get(key); ok {
			return m, nil
		}
	}
	var b strings.Builder
	if err := html.Render(&b, widgetNode(s)); err != nil {
		return WidgetMarkup{}, fmt.Errorf("render widget %q: %w", s.ID, err)
	}
	m := WidgetMarkup{ToolID: s.ID, HTML: b.String()}
	if c.cache != nil {
		c.cache.Add(key, m)
	}
	return m, nil
}

// Len reports how many compiled widgets are cached.
func (c *Compiler) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func fingerprint(s ToolSchema) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", s.ID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func widgetNode(s ToolSchema) *html.Node {
	p := ThemePalette(s.Theme)
	title := s.Title
	if title == "" {
		title = s.ID
	}
	root := element(atom.Div,
		AttrCalculator, s.ID,
		AttrTheme, s.Theme,
		"class", "itb-calculator",
		"style", fmt.Sprintf("background: %s; border-left: 5px solid %s; padding: 24px; margin: 24px 0; border-radius: 6px;", p.Background, p.Accent),
	)
	h := element(atom.H3, "style", fmt.Sprintf("margin-top: 0; color: %s; font-size: 1.3em;", p.Accent))
	h.AppendChild(text(title))
	appendLine(root, h)

	inputs := element(atom.Div, "class", ClassInputs)
	for _, in := range s.Inputs {
		group := element(atom.Div, "class", "itb-input-group")
		group.AppendChild(labelNode(in.Label))
		group.AppendChild(inputNode(in))
		appendLine(inputs, group)
	}
	trigger := element(atom.Button, "type", "button", "style", "display:none !important;")
	trigger.AppendChild(text("Calculate"))
	appendLine(inputs, trigger)
	inputs.AppendChild(text("\n"))
	appendLine(root, inputs)

	outputs := element(atom.Div, "class", ClassOutputs, AttrResults, "", "aria-live", "polite")
	for _, o := range s.Outputs {
		group := element(atom.Div, "class", "itb-output-group")
		group.AppendChild(labelNode(o.Label))
		strong := element(atom.Strong, AttrOutput, o.Name, AttrFormat, string(o.Format))
		strong.AppendChild(text(OutputPlaceholder))
		group.AppendChild(strong)
		appendLine(outputs, group)
	}
	outputs.AppendChild(text("\n"))
	appendLine(root, outputs)
	root.AppendChild(text("\n"))
	return root
}

func inputNode(in InputSpec) *html.Node {
	switch in.Kind {
	case KindChoice:
		sel := element(atom.Select, AttrVar, in.Name)
		for _, o := range in.Options {
			opt := element(atom.Option, "value", o)
			opt.AppendChild(text(o))
			sel.AppendChild(opt)
		}
		return sel
	case KindNumber:
		return element(atom.Input,
			"type", "number",
			AttrVar, in.Name,
			"value", formatAttrNumber(in.MinValue()),
			"step", formatAttrNumber(in.StepValue()),
		)
	default:
		return element(atom.Input, "type", "text", AttrVar, in.Name, "placeholder", "...")
	}
}

func labelNode(label string) *html.Node {
	l := element(atom.Label)
	l.AppendChild(text(label + ":"))
	return l
}

func formatAttrNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// element builds an element node; attrs are key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendLine appends child on its own line so compiled markup stays diffable.
func appendLine(parent, child *html.Node) {
	parent.AppendChild(text("\n"))
	parent.AppendChild(child)
}
