package calcdoc

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SignalType names a user interaction the evaluator reacts to.
type SignalType string

const (
	SignalInput  SignalType = "input"
	SignalChange SignalType = "change"
)

// Signal is an interaction raised on a node of a Document. It bubbles to the
// enclosing widget, if any.
type Signal struct {
	Type   SignalType
	Target *html.Node
}

type listener struct {
	id       int
	handle   func(Signal)
	onUnload func()
}

// Document is a parsed host page. It plays the part of the browser DOM for the
// evaluator: signals are dispatched to listeners in registration order and an
// installed runtime is released on Unload.
type Document struct {
	root      *html.Node
	listeners []listener
	nextID    int
	runtime   *Subscription
}

// ParseDocument parses r as HTML.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseDocumentString parses s as HTML.
func ParseDocumentString(s string) (*Document, error) {
	return ParseDocument(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Render writes the current state of the document, outputs included.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Widgets returns every compiled widget in document order.
func (d *Document) Widgets() []*Widget {
	var out []*Widget
	walkElements(d.root, func(n *html.Node) bool {
		if id, ok := attr(n, AttrCalculator); ok {
			out = append(out, &Widget{ID: id, node: n, doc: d})
		}
		return true
	})
	return out
}

// Widget returns the first widget with the given id.
func (d *Document) Widget(id string) (*Widget, bool) {
	for _, w := range d.Widgets() {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

// Dispatch delivers sig to every listener registered at the time of the call.
func (d *Document) Dispatch(sig Signal) {
	for _, l := range slices.Clone(d.listeners) {
		l.handle(sig)
	}
}

// Listeners reports how many listeners are registered.
func (d *Document) Listeners() int { return len(d.listeners) }

// Unload simulates the page going away: every listener's unload hook runs.
func (d *Document) Unload() {
	for _, l := range slices.Clone(d.listeners) {
		if l.onUnload != nil {
			l.onUnload()
		}
	}
}

func (d *Document) addListener(handle func(Signal), onUnload func()) int {
	d.nextID++
	d.listeners = append(d.listeners, listener{id: d.nextID, handle: handle, onUnload: onUnload})
	return d.nextID
}

func (d *Document) removeListener(id int) {
	d.listeners = slices.DeleteFunc(d.listeners, func(l listener) bool { return l.id == id })
}

// closestWidget walks up from n to the enclosing widget container.
func (d *Document) closestWidget(n *html.Node) *Widget {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if id, ok := attr(n, AttrCalculator); ok {
			return &Widget{ID: id, node: n, doc: d}
		}
	}
	return nil
}

// Widget is one compiled calculator inside a Document.
type Widget struct {
	ID   string
	node *html.Node
	doc  *Document
}

// Node returns the widget container element.
func (w *Widget) Node() *html.Node { return w.node }

// Field returns the input element bound to name.
func (w *Widget) Field(name string) (*html.Node, bool) {
	var found *html.Node
	walkElements(w.node, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := attr(n, AttrVar); ok && v == name {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

func (w *Widget) fields() []*html.Node {
	var out []*html.Node
	walkElements(w.node, func(n *html.Node) bool {
		if _, ok := attr(n, AttrVar); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// InputValue returns the current text of the field bound to name.
func (w *Widget) InputValue(name string) (string, bool) {
	n, ok := w.Field(name)
	if !ok {
		return "", false
	}
	return fieldValue(n), true
}

// SetInput changes the value of the field bound to name without raising a signal.
// For a select the matching option becomes selected.
func (w *Widget) SetInput(name, value string) error {
	n, ok := w.Field(name)
	if !ok {
		return fmt.Errorf("widget %q has no field %q", w.ID, name)
	}
	switch n.DataAtom {
	case atom.Select:
		opts := selectOptions(n)
		idx := slices.IndexFunc(opts, func(o *html.Node) bool { return optionValue(o) == value })
		if idx < 0 {
			return fmt.Errorf("widget %q: field %q has no option %q", w.ID, name, value)
		}
		for i, o := range opts {
			removeAttr(o, "selected")
			if i == idx {
				o.Attr = append(o.Attr, html.Attribute{Key: "selected"})
			}
		}
	case atom.Textarea:
		setText(n, value)
	default:
		setAttr(n, "value", value)
	}
	return nil
}

// Edit sets a field and dispatches an input signal from it, as typing would.
func (w *Widget) Edit(name, value string) error {
	if err := w.SetInput(name, value); err != nil {
		return err
	}
	n, _ := w.Field(name)
	w.doc.Dispatch(Signal{Type: SignalInput, Target: n})
	return nil
}

// Values reads every bound field. Select fields yield their text; all others are
// coerced with CoerceNumber.
func (w *Widget) Values() Values {
	vals := make(Values)
	for _, n := range w.fields() {
		name, _ := attr(n, AttrVar)
		vals[name] = CoerceInput(fieldValue(n), n.DataAtom == atom.Select)
	}
	return vals
}

// OutputText returns the displayed text of the named output.
func (w *Widget) OutputText(name string) (string, bool) {
	for _, n := range w.outputs() {
		if v, _ := attr(n, AttrOutput); v == name {
			return textContent(n), true
		}
	}
	return "", false
}

// outputs returns the output elements inside the widget's output region only.
func (w *Widget) outputs() []*html.Node {
	var region *html.Node
	walkElements(w.node, func(n *html.Node) bool {
		if region != nil {
			return false
		}
		if hasClass(n, ClassOutputs) {
			region = n
			return false
		}
		return true
	})
	if region == nil {
		return nil
	}
	var out []*html.Node
	walkElements(region, func(n *html.Node) bool {
		if _, ok := attr(n, AttrOutput); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

// writeOutputs displays the declared outputs present in vals. Absent and nil
// values leave the previous text in place.
func (w *Widget) writeOutputs(vals Values) int {
	written := 0
	for _, n := range w.outputs() {
		name, _ := attr(n, AttrOutput)
		v, ok := vals[name]
		if !ok {
			continue
		}
		format, _ := attr(n, AttrFormat)
		txt, ok := FormatOutput(v, OutputFormat(format))
		if !ok {
			continue
		}
		setText(n, txt)
		written++
	}
	return written
}

func fieldValue(n *html.Node) string {
	switch n.DataAtom {
	case atom.Select:
		opts := selectOptions(n)
		for _, o := range opts {
			if _, sel := attr(o, "selected"); sel {
				return optionValue(o)
			}
		}
		if len(opts) > 0 {
			return optionValue(opts[0])
		}
		return ""
	case atom.Textarea:
		return textContent(n)
	default:
		v, _ := attr(n, "value")
		return v
	}
}

func selectOptions(sel *html.Node) []*html.Node {
	var out []*html.Node
	walkElements(sel, func(n *html.Node) bool {
		if n.DataAtom == atom.Option {
			out = append(out, n)
		}
		return true
	})
	return out
}

func optionValue(o *html.Node) string {
	if v, ok := attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(o))
}

// walkElements visits element nodes depth first. Returning false skips children.
func walkElements(n *html.Node, visit func(*html.Node) bool) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, visit)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Namespace == "" && a.Key == key })
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	return ok && slices.Contains(strings.Fields(v), class)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func setText(n *html.Node, s string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}
