// Package manifest loads declaration manifests, the hand-off format the
// front end uses to feed the semantic core. A manifest describes classes,
// interfaces and free functions by name; the loader builds the raw symbol
// graph in file order, leaving base resolution and dispatch placement to
// the resolver.
package manifest

// File mirrors the TOML shape of one declaration manifest.
type File struct {
	Classes    []ClassDecl `toml:"class"`
	Interfaces []IfaceDecl `toml:"interface"`
	Fns        []FnDecl    `toml:"fn"`
}

// ClassDecl is one [[class]] table.
type ClassDecl struct {
	Name  string   `toml:"name"`
	Bases []string `toml:"bases"`
	Quals []string `toml:"quals"`
	Fns   []FnDecl `toml:"fn"`
}

// IfaceDecl is one [[interface]] table.
type IfaceDecl struct {
	Name  string   `toml:"name"`
	Bases []string `toml:"bases"`
	Fns   []FnDecl `toml:"fn"`
}

// FnDecl is a function declaration inside a class, an interface, or at
// the top level.
type FnDecl struct {
	Name    string   `toml:"name"`
	Params  []string `toml:"params"`
	Result  string   `toml:"result"`
	Type    string   `toml:"type"` // set instead of params/result for non-function members
	Attrs   []string `toml:"attrs"`
	Effects []string `toml:"effects"`
	Quals   []string `toml:"quals"`
}
