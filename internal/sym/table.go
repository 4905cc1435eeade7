package sym

import (
	"vesper/internal/source"
	"vesper/internal/types"
)

// Hints provide optional capacity suggestions for the arenas.
type Hints struct{ Decls, Classes, Ifaces uint32 }

// Graph aggregates the symbol arenas and shared resources for one
// compilation unit. The semantic core borrows and mutates records through
// it; ownership stays with the graph for the unit's lifetime.
type Graph struct {
	Decls   *Decls
	Classes *Classes
	Ifaces  *Ifaces
	Strings *source.Interner
	Types   *types.Interner

	byClassType map[types.TypeID]ClassID
	byIfaceType map[types.TypeID]IfaceID
	FreeFns     []DeclID
}

// NewGraph builds a fresh graph with optional capacity hints. Nil interners
// are allocated on the spot.
func NewGraph(h Hints, strings *source.Interner, tys *types.Interner) *Graph {
	if strings == nil {
		strings = source.NewInterner()
	}
	if tys == nil {
		tys = types.NewInterner()
	}
	return &Graph{
		Decls:       NewDecls(h.Decls),
		Classes:     NewClasses(h.Classes),
		Ifaces:      NewIfaces(h.Ifaces),
		Strings:     strings,
		Types:       tys,
		byClassType: make(map[types.TypeID]ClassID),
		byIfaceType: make(map[types.TypeID]IfaceID),
	}
}

// AddClass registers a class handle type and its record.
func (g *Graph) AddClass(name string, span source.Span) ClassID {
	nameID := g.Strings.Intern(name)
	handle := g.Types.RegisterClass(nameID, span)
	id := g.Classes.New(&Class{
		Name:  nameID,
		Span:  span,
		Type:  handle,
		Stage: ClassForward,
	})
	g.byClassType[handle] = id
	return id
}

// AddIface registers an interface handle type and its record.
func (g *Graph) AddIface(name string, span source.Span) IfaceID {
	nameID := g.Strings.Intern(name)
	handle := g.Types.RegisterIface(nameID, span)
	id := g.Ifaces.New(&Interface{
		Name:  nameID,
		Span:  span,
		Type:  handle,
		Stage: ClassForward,
	})
	g.byIfaceType[handle] = id
	return id
}

// AddDecl allocates a declaration and links it to its owner.
func (g *Graph) AddDecl(decl *Decl) DeclID {
	id := g.Decls.New(decl)
	switch {
	case decl.OwnerClass.IsValid():
		owner := g.Classes.Get(decl.OwnerClass)
		owner.Members = append(owner.Members, id)
	case decl.OwnerIface.IsValid():
		owner := g.Ifaces.Get(decl.OwnerIface)
		owner.Members = append(owner.Members, id)
	default:
		g.FreeFns = append(g.FreeFns, id)
	}
	return id
}

// ClassByType maps a class handle type back to its record.
func (g *Graph) ClassByType(t types.TypeID) (ClassID, bool) {
	id, ok := g.byClassType[t]
	return id, ok
}

// IfaceByType maps an interface handle type back to its record.
func (g *Graph) IfaceByType(t types.TypeID) (IfaceID, bool) {
	id, ok := g.byIfaceType[t]
	return id, ok
}

// Name resolves a declaration's interned name.
func (g *Graph) Name(id DeclID) string {
	d := g.Decls.Get(id)
	if d == nil {
		return ""
	}
	name, _ := g.Strings.Lookup(d.Name)
	return name
}

// ClassName resolves a class's interned name.
func (g *Graph) ClassName(id ClassID) string {
	c := g.Classes.Get(id)
	if c == nil {
		return ""
	}
	name, _ := g.Strings.Lookup(c.Name)
	return name
}

// IfaceName resolves an interface's interned name.
func (g *Graph) IfaceName(id IfaceID) string {
	f := g.Ifaces.Get(id)
	if f == nil {
		return ""
	}
	name, _ := g.Strings.Lookup(f.Name)
	return name
}
