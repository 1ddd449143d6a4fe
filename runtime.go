package calcdoc

import (
	_ "embed"
)

// RuntimeVersion is stamped into the bundle header.
const RuntimeVersion = "14.0"

// FormulaTableGlobal is the global the formula table script assigns.
const FormulaTableGlobal = "ITB_FORMULAS"

//go:embed assets/runtime/formulas.js
var formulaTableJS string

//go:embed assets/runtime/engine.js
var engineJS string

// FormulaTableSource returns the JavaScript formula table shipped in every bundle.
func FormulaTableSource() string { return formulaTableJS }

// RuntimeSource returns the complete runtime: formula table followed by the reactive engine.
func RuntimeSource() string {
	return RuntimeSourceWith(formulaTableJS)
}

// RuntimeSourceWith returns the runtime built around a different formula table.
// The table must assign FormulaTableGlobal.
func RuntimeSourceWith(formulaTable string) string {
	return formulaTable + "\n" + engineJS
}
