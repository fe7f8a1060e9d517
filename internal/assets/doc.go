// Package assets provides the CSS and HTML shells that each document style
// wraps its sections in.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in shells compiled in with go:embed
//	    ├── FilesystemLoader  - operator overrides from a directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {style}.css
//	└── templates/
//	    └── {style}.html        # html/template executed with the document's sections
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
