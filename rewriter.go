package calcdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// BlockStatus is the outcome of one raw tool block during a rewrite.
type BlockStatus string

const (
	// BlockConverted means the block was replaced by its compiled widget.
	BlockConverted BlockStatus = "converted"
	// BlockSkipped means the block could not be used (parse error, incomplete schema)
	// and was left untouched.
	BlockSkipped BlockStatus = "skipped"
	// BlockWarned means the block is valid but was left untouched (unknown or duplicate id).
	BlockWarned BlockStatus = "warned"
)

// BlockOutcome reports what happened to one raw block.
type BlockOutcome struct {
	Index  int
	ToolID string
	Status BlockStatus
	Err    error
}

// Result is the output of a rewrite together with its batch diagnostics.
type Result struct {
	Document       string
	Blocks         []BlockOutcome
	BundlesRemoved int
	Bundle         *Bundle
}

// Count returns how many blocks ended with status.
func (r *Result) Count(status BlockStatus) int {
	n := 0
	for _, b := range r.Blocks {
		if b.Status == status {
			n++
		}
	}
	return n
}

// Rewriter compiles raw tool blocks of a document into widgets and keeps exactly
// one runtime bundle at its end.
type Rewriter struct {
	opts rewriterOptions
}

// NewRewriter creates a Rewriter. By default it packages RuntimeSource() with a
// hex-encoding Packager and caches compiled widgets.
func NewRewriter(opts ...RewriterOption) (*Rewriter, error) {
	o := rewriterOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.packager == nil {
		o.packager = NewPackager()
	}
	if o.compiler == nil {
		c, err := NewCompiler(DefaultCompilerCacheSize)
		if err != nil {
			return nil, err
		}
		o.compiler = c
	}
	if o.runtime == "" {
		o.runtime = RuntimeSource()
	}
	switch o.duplicates {
	case DuplicateReplaceAll, DuplicateKeepFirst:
	default:
		return nil, fmt.Errorf("unknown duplicate policy %d", o.duplicates)
	}
	return &Rewriter{opts: o}, nil
}

// Rewrite runs one build over document. Only ErrUnsafeSourceCharacters is fatal: it
// is checked before anything else so no partial output exists. Every other problem is
// scoped to its block, logged and reported in Result.Blocks.
//
// Rewriting the output again with the same tools yields the same bytes: compiled
// widgets no longer match the raw block pattern and the bundle collapses to one.
func (r *Rewriter) Rewrite(document string, tools map[string]ToolSchema) (*Result, error) {
	bundle, err := r.opts.packager.Package(r.opts.runtime)
	if err != nil {
		return nil, fmt.Errorf("package runtime: %w", err)
	}
	res := &Result{Bundle: bundle}
	log := r.opts.logger

	blocks := Scan(document)
	log.Info("scanned document", "blocks", len(blocks))

	seen := make(map[string]bool)
	if r.opts.duplicates == DuplicateKeepFirst {
		for _, id := range FindWidgets(document) {
			seen[id] = true
		}
	}

	var b strings.Builder
	b.Grow(len(document))
	pos := 0
	for _, blk := range blocks {
		outcome, markup := r.convert(blk, tools, seen)
		res.Blocks = append(res.Blocks, outcome)
		r.logOutcome(outcome)
		if outcome.Status != BlockConverted {
			continue
		}
		b.WriteString(document[pos:blk.Start])
		b.WriteString(markup)
		pos = blk.End
	}
	b.WriteString(document[pos:])

	body := b.String()
	spans := FindRuntimeBundles(body)
	res.BundlesRemoved = len(spans)
	body = removeSpans(body, spans)
	body = strings.TrimRightFunc(body, unicode.IsSpace)
	res.Document = body + "\n" + bundle.Markup + "\n"

	log.Info("rewrite complete",
		"converted", res.Count(BlockConverted),
		"skipped", res.Count(BlockSkipped),
		"warned", res.Count(BlockWarned),
		"bundles_removed", res.BundlesRemoved,
	)
	return res, nil
}

func (r *Rewriter) convert(blk Block, tools map[string]ToolSchema, seen map[string]bool) (BlockOutcome, string) {
	out := BlockOutcome{Index: blk.Index, ToolID: blk.Schema.ID}
	if blk.Err != nil {
		out.Status = BlockSkipped
		out.Err = blk.Err
		return out, ""
	}
	id := blk.Schema.ID
	if _, ok := tools[id]; !ok {
		out.Status = BlockWarned
		out.Err = fmt.Errorf("%w: %q", ErrUnknownToolID, id)
		return out, ""
	}
	if r.opts.duplicates == DuplicateKeepFirst && seen[id] {
		out.Status = BlockWarned
		out.Err = fmt.Errorf("%w: %q", ErrDuplicateToolID, id)
		return out, ""
	}
	m, err := r.opts.compiler.Compile(blk.Schema)
	if err != nil {
		out.Status = BlockSkipped
		out.Err = err
		return out, ""
	}
	seen[id] = true
	out.Status = BlockConverted
	return out, m.HTML
}

func (r *Rewriter) logOutcome(o BlockOutcome) {
	switch o.Status {
	case BlockConverted:
		r.opts.logger.Info("converted tool block", "index", o.Index, "tool", o.ToolID)
	case BlockWarned:
		r.opts.logger.Warn("tool block left unchanged", "index", o.Index, "tool", o.ToolID, "error", o.Err)
	default:
		level := slog.LevelWarn
		if errors.Is(o.Err, ErrSchemaIncomplete) {
			level = slog.LevelInfo
		}
		r.opts.logger.Log(context.Background(), level, "tool block skipped", "index", o.Index, "error", o.Err)
	}
}

// removeSpans deletes ordered, non-overlapping spans from s.
func removeSpans(s string, spans []Span) string {
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	for _, sp := range spans {
		b.WriteString(s[pos:sp.Start])
		pos = sp.End
	}
	b.WriteString(s[pos:])
	return b.String()
}

// Rewrite rewrites document with a default Rewriter and returns the new text.
func Rewrite(document string, tools map[string]ToolSchema) (string, error) {
	rw, err := NewRewriter()
	if err != nil {
		return "", err
	}
	res, err := rw.Rewrite(document, tools)
	if err != nil {
		return "", err
	}
	return res.Document, nil
}
