package assets

import (
	"fmt"
	"html/template"
)

// Shell is a parsed document template and its stylesheet.
type Shell struct {
	Name     string
	Template *template.Template
	CSS      string
}

// LoadShell loads and parses the template and stylesheet named name.
func LoadShell(loader AssetLoader, name string) (*Shell, error) {
	css, err := loader.LoadStyle(name)
	if err != nil {
		return nil, err
	}
	src, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return &Shell{Name: name, Template: tmpl, CSS: css}, nil
}
