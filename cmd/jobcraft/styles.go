package main

import (
	"fmt"

	"github.com/alnah/go-jobcraft/internal/document"
)

// runStyles lists the registered design styles and marks the default.
func runStyles(args []string, env *Environment) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: styles takes no arguments", ErrUsage)
	}
	for _, name := range document.StyleNames() {
		marker := ""
		if name == string(document.DefaultStyle) {
			marker = " (default)"
		}
		fmt.Fprintf(env.Stdout, "%s%s\n", name, marker)
	}
	return nil
}
