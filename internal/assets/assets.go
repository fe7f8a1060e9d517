package assets

var defaultLoader = NewEmbeddedLoader()

// Default returns the embedded loader.
func Default() *EmbeddedLoader {
	return defaultLoader
}

// BuiltinNames lists the embedded shells.
func BuiltinNames() []string {
	return defaultLoader.Names()
}
