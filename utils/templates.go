package utils

import (
	"fmt"
	"io"

	"github.com/edisonguo/jet"
)

// ExecuteJetTemplate renders one jet template rooted at the etc
// directory with the supplied context value.
func ExecuteJetTemplate(w io.Writer, data interface{}, rootDir, templateFile string) error {
	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), rootDir, "/")

	tpl, err := view.GetTemplate(templateFile)
	if err != nil {
		return fmt.Errorf("Error trying to load template %s: %v", templateFile, err)
	}

	vars := make(jet.VarMap)
	if err := tpl.Execute(w, vars, data); err != nil {
		return fmt.Errorf("Error executing template: %v", err)
	}
	return nil
}
