package calcdoc

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// PayloadElementID is the id of the hidden input carrying the encoded runtime.
const PayloadElementID = "itb-runtime-payload"

// unsafeRunes are typographic characters rich-text editors substitute for plain
// quotes. Inside string literals of the runtime they silently break the script.
var unsafeRunes = map[rune]struct{}{
	'‘': {}, '’': {}, '‚': {}, '‛': {},
	'“': {}, '”': {}, '„': {}, '‟': {},
	'′': {}, '″': {},
}

// CheckSource fails with *UnsafeSourceError if src contains typographic quotes or primes.
func CheckSource(src string) error {
	var first *UnsafeSourceError
	line, col := 1, 0
	for _, r := range src {
		col++
		if r == '\n' {
			line++
			col = 0
			continue
		}
		if _, bad := unsafeRunes[r]; !bad {
			continue
		}
		if first == nil {
			first = &UnsafeSourceError{Rune: r, Line: line, Column: col}
		}
		first.Count++
	}
	if first != nil {
		return first
	}
	return nil
}

// Bundle is a packaged runtime ready to be appended to a document.
type Bundle struct {
	Codec   string
	Payload string
	Markup  string
}

// Packager encodes runtime source and wraps it in a self-decoding bootstrap.
type Packager struct {
	opts packagerOptions
}

// NewPackager creates a Packager. Defaults: hex codec, 500ms boot delay.
func NewPackager(opts ...PackagerOption) *Packager {
	o := packagerOptions{
		codec:     HexCodec{},
		bootDelay: 500 * time.Millisecond,
		version:   RuntimeVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Packager{opts: o}
}

// Codec returns the transform used by Package.
func (p *Packager) Codec() Codec { return p.opts.codec }

// Package checks and encodes runtimeSource. The output is deterministic for a given
// source and configuration, which keeps document rewrites idempotent.
func (p *Packager) Package(runtimeSource string) (*Bundle, error) {
	if err := CheckSource(runtimeSource); err != nil {
		return nil, err
	}
	payload := string(p.opts.codec.Encode([]byte(runtimeSource)))
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s (%s) -->", BundleHeader, p.opts.version, p.opts.codec.Name())
	b.WriteString(`<div class="itb-runtime" style="font-size:0;line-height:0;margin:0;padding:0;display:inline;">`)
	fmt.Fprintf(&b, `<input type="hidden" id="%s" data-itb-codec="%s" value="%s">`,
		PayloadElementID, p.opts.codec.Name(), html.EscapeString(payload))
	b.WriteString("<script>")
	b.WriteString(p.bootstrap())
	b.WriteString("</script>")
	b.WriteString("<style>")
	b.WriteString(runtimeStyles)
	b.WriteString("</style>")
	b.WriteString("</div>")
	b.WriteString(BundleTrailer)
	return &Bundle{Codec: p.opts.codec.Name(), Payload: payload, Markup: b.String()}, nil
}

// bootstrap decodes and evaluates the payload once, after DOM ready plus the boot delay.
func (p *Packager) bootstrap() string {
	return fmt.Sprintf(`!function(){var w=window;if(w.__itbRuntimeBoot)return;w.__itbRuntimeBoot=1;var decode=%s;`+
		`function run(){setTimeout(function(){var e=document.getElementById("%s");if(!e||!e.value)return;var s;`+
		`try{s=decode(e.value)}catch(x){return console.error("ITB: runtime payload could not be decoded",x)}(0,eval)(s)},%d)}`+
		`if(document.readyState==="loading")document.addEventListener("DOMContentLoaded",run);else run()}();`,
		p.opts.codec.DecoderJS(), PayloadElementID, p.opts.bootDelay.Milliseconds())
}

const runtimeStyles = `.itb-runtime{margin:0;padding:0;font-size:0;line-height:0}` +
	`.itb-outputs{display:block;margin-top:20px;padding:15px;background:#f0fdf4;border:1px solid #16a34a;border-radius:6px;font-size:16px;line-height:1.5}` +
	`.itb-output-group{margin-bottom:8px;display:flex;justify-content:space-between;border-bottom:1px dashed #bbf7d0;padding-bottom:4px}` +
	`.itb-output-group:last-child{border-bottom:none}`
