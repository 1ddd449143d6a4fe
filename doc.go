// Package calcdoc turns tool definitions embedded in a host HTML document into
// live, self-contained calculator widgets.
//
// # Overview
//
// Authors paste raw tool definitions (JSON inside a <pre><code class="itb-tool">
// block) into a document. A build turns them into widgets: scan → parse (JSON Schema,
// then semantic checks) → compile to markup → substitute by byte offset → strip old
// runtime bundles → append one fresh bundle. In the browser the bundle decodes itself
// and wires every widget reactively; in Go the same formulas run through Evaluator.
//
// Pipeline: document + tools map → Rewriter.Rewrite → Result (document, per-block
// outcomes, bundle). Runtime: FormulaRegistry → Evaluator.Install(Document) →
// Subscription (signals → Idle/Computing/Settled/Faulted per widget).
//
// # Key concepts
//
//   - Idempotence: rewriting a rewritten document with the same tools is a no-op.
//   - Block-scoped failure: a bad block is skipped and reported; only
//     ErrUnsafeSourceCharacters aborts a build, before any output exists.
//   - Widget-scoped faults: a throwing formula keeps its widget's last output and
//     never stops other widgets.
//   - One formula source: the embedded JavaScript formula table runs in the browser
//     and, through goja, in Go.
//
// # Example
//
//	res, err := calcdoc.NewRewriter(calcdoc.WithLogger(logger))
//	if err != nil { ... }
//	out, err := res.Rewrite(page, map[string]calcdoc.ToolSchema{"capacity": capacity})
//	if err != nil { ... } // only unsafe runtime source
//	for _, b := range out.Blocks { fmt.Println(b.Index, b.ToolID, b.Status) }
//
//	reg, _ := calcdoc.NewBuiltinRegistry()
//	doc, _ := calcdoc.ParseDocumentString(out.Document)
//	sub, _ := calcdoc.NewEvaluator(reg).Install(doc)
//	defer sub.Close()
package calcdoc
