package config

import (
	"fmt"

	"github.com/skosovsky/calcdoc/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render("calcdoc config"))

	logs := fancy.BranchNode("Logging", "")
	logs.Child(fmt.Sprintf("Format: %s", c.Logging.Format))
	logs.Child(fmt.Sprintf("Level: %s", c.Logging.Level))
	t.Child(logs)

	build := fancy.BranchNode("Build", "")
	tools := c.Build.Tools
	if tools == "" {
		tools = "(none)"
	}
	formulas := c.Build.Formulas
	if formulas == "" {
		formulas = "(embedded)"
	}
	build.Child(fmt.Sprintf("Tools: %s", tools))
	build.Child(fmt.Sprintf("Formulas: %s", formulas))
	build.Child(fmt.Sprintf("Runtime: v%s", c.Build.RuntimeVersion))
	build.Child(fmt.Sprintf("Codec: %s", c.Build.Codec))
	build.Child(fmt.Sprintf("Boot delay: %s", c.Build.BootDelay))
	build.Child(fmt.Sprintf("Duplicates: %s", c.Build.Duplicates))
	build.Child(fmt.Sprintf("Compiler cache: %d", c.Build.CompilerCacheSize))
	t.Child(build)

	return t.String()
}
