package assets

// AssetLoader loads CSS styles and HTML shell templates by name.
type AssetLoader interface {
	// LoadStyle returns {name}.css. ErrStyleNotFound if missing.
	LoadStyle(name string) (string, error)

	// LoadTemplate returns {name}.html. ErrTemplateNotFound if missing.
	LoadTemplate(name string) (string, error)
}
