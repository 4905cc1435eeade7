package manifest

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// Loader accumulates parsed manifests and materializes them into a symbol
// graph. Files are kept in arrival order; nothing is resolved until
// Finish, so a base class may live in a later file than its subclasses.
type Loader struct {
	Files    *source.FileSet
	Graph    *sym.Graph
	Reporter diag.Reporter

	parsed []parsedFile
	byName map[string]types.TypeID
}

type parsedFile struct {
	id   source.FileID
	file File

	// filled in pass one; sentinel IDs mark dropped duplicates
	classIDs []sym.ClassID
	ifaceIDs []sym.IfaceID
}

// NewLoader wires a loader to its collaborators. A nil reporter discards
// diagnostics.
func NewLoader(fs *source.FileSet, g *sym.Graph, rep diag.Reporter) *Loader {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Loader{
		Files:    fs,
		Graph:    g,
		Reporter: rep,
		byName:   make(map[string]types.TypeID),
	}
}

// LoadFile reads and parses one manifest from disk.
func (l *Loader) LoadFile(path string) error {
	id, err := l.Files.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return l.parse(id)
}

// LoadBytes parses an in-memory manifest under a virtual path.
func (l *Loader) LoadBytes(name string, content []byte) error {
	id := l.Files.AddVirtual(name, content)
	return l.parse(id)
}

func (l *Loader) parse(id source.FileID) error {
	f := l.Files.Get(id)
	var mf File
	if err := toml.Unmarshal(f.Content, &mf); err != nil {
		diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestBadSyntax,
			source.Span{File: id}, err.Error()).Emit()
		return fmt.Errorf("%s: failed to parse TOML: %w", f.Path, err)
	}
	l.parsed = append(l.parsed, parsedFile{id: id, file: mf})
	return nil
}

// Finish registers every named type across all loaded files, then builds
// the declarations. Two passes so that any file may reference types from
// any other without ordering constraints; the base lists themselves stay
// raw for the resolver.
func (l *Loader) Finish() {
	for i := range l.parsed {
		pf := &l.parsed[i]
		content := l.Files.Get(pf.id).Content
		// Separate locators per section: each scans forward through its
		// own declarations in file order.
		curC := locator{content: content, file: pf.id}
		curI := locator{content: content, file: pf.id}
		for _, c := range pf.file.Classes {
			sp := curC.spanFor(c.Name)
			if l.duplicate(c.Name, sp) {
				pf.classIDs = append(pf.classIDs, sym.NoClassID)
				continue
			}
			id := l.Graph.AddClass(c.Name, sp)
			rec := l.Graph.Classes.Get(id)
			rec.Quals = l.parseQuals(c.Quals, sp)
			l.byName[c.Name] = rec.Type
			pf.classIDs = append(pf.classIDs, id)
		}
		for _, f := range pf.file.Interfaces {
			sp := curI.spanFor(f.Name)
			if l.duplicate(f.Name, sp) {
				pf.ifaceIDs = append(pf.ifaceIDs, sym.NoIfaceID)
				continue
			}
			id := l.Graph.AddIface(f.Name, sp)
			l.byName[f.Name] = l.Graph.Ifaces.Get(id).Type
			pf.ifaceIDs = append(pf.ifaceIDs, id)
		}
	}

	for i := range l.parsed {
		pf := &l.parsed[i]
		content := l.Files.Get(pf.id).Content
		curC := locator{content: content, file: pf.id}
		curI := locator{content: content, file: pf.id}
		curF := locator{content: content, file: pf.id}
		for ci, c := range pf.file.Classes {
			curC.spanFor(c.Name) // advance past the class header
			classID := pf.classIDs[ci]
			rec := l.Graph.Classes.Get(classID)
			if rec == nil {
				continue // duplicate dropped in pass one
			}
			for _, base := range c.Bases {
				rec.RawBases = append(rec.RawBases, l.resolveType(base, rec.Span))
			}
			for _, fn := range c.Fns {
				l.addFn(fn, &curC, classID, sym.NoIfaceID)
			}
		}
		for fi, f := range pf.file.Interfaces {
			curI.spanFor(f.Name)
			ifaceID := pf.ifaceIDs[fi]
			rec := l.Graph.Ifaces.Get(ifaceID)
			if rec == nil {
				continue
			}
			for _, base := range f.Bases {
				rec.RawBases = append(rec.RawBases, l.resolveType(base, rec.Span))
			}
			for _, fn := range f.Fns {
				l.addFn(fn, &curI, sym.NoClassID, ifaceID)
			}
		}
		for _, fn := range pf.file.Fns {
			l.addFn(fn, &curF, sym.NoClassID, sym.NoIfaceID)
		}
	}
}

func (l *Loader) duplicate(name string, sp source.Span) bool {
	if _, exists := l.byName[name]; !exists {
		return false
	}
	diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestDuplicateType, sp,
		fmt.Sprintf("type '%s' is declared more than once", name)).Emit()
	return true
}

func (l *Loader) addFn(fn FnDecl, cur *locator, class sym.ClassID, iface sym.IfaceID) {
	sp := cur.spanFor(fn.Name)
	d := &sym.Decl{
		Name:       l.Graph.Strings.Intern(fn.Name),
		Span:       sp,
		OwnerClass: class,
		OwnerIface: iface,
		Storage:    l.parseAttrs(fn.Attrs, sp),
		Quals:      l.parseQuals(fn.Quals, sp),
	}
	d.Effects, d.Safety = l.parseEffects(fn.Effects, sp)

	if fn.Type != "" {
		d.Raw.PlainType = l.resolveType(fn.Type, sp)
	} else {
		for _, p := range fn.Params {
			d.Raw.Params = append(d.Raw.Params, l.resolveType(p, sp))
		}
		switch fn.Result {
		case "", "void":
			d.Raw.Result = l.Graph.Types.Builtins().Void
		case "auto":
			d.Storage |= sym.StorageAutoReturn
		default:
			d.Raw.Result = l.resolveType(fn.Result, sp)
		}
	}
	l.Graph.AddDecl(d)
}

// resolveType maps a manifest type name to an interned type. A leading
// '*' denotes a pointer. Unknown names diagnose and come back as the
// error sentinel so downstream stays total.
func (l *Loader) resolveType(name string, sp source.Span) types.TypeID {
	in := l.Graph.Types
	if len(name) > 0 && name[0] == '*' {
		return in.MakePointer(l.resolveType(name[1:], sp))
	}
	b := in.Builtins()
	switch name {
	case "void":
		return b.Void
	case "bool":
		return b.Bool
	case "int":
		return b.Int
	case "float":
		return b.Float
	case "string":
		return b.String
	}
	if t, ok := l.byName[name]; ok {
		return t
	}
	diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestUnknownType, sp,
		fmt.Sprintf("unknown type '%s'", name)).Emit()
	return in.ErrorSentinel()
}

func (l *Loader) parseAttrs(attrs []string, sp source.Span) sym.Storage {
	var st sym.Storage
	for _, a := range attrs {
		switch a {
		case "static":
			st |= sym.StorageStatic
		case "final":
			st |= sym.StorageFinal
		case "abstract":
			st |= sym.StorageAbstract
		case "override":
			st |= sym.StorageOverride
		case "disabled":
			st |= sym.StorageDisabled
		case "deprecated":
			st |= sym.StorageDeprecated
		case "mixin":
			st |= sym.StorageMixin
		case "private":
			st |= sym.StoragePrivate
		case "package":
			st |= sym.StoragePackage
		case "ctor":
			st |= sym.StorageCtor
		default:
			diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestBadAttr, sp,
				fmt.Sprintf("unknown attribute '%s'", a)).Emit()
		}
	}
	return st
}

func (l *Loader) parseEffects(effects []string, sp source.Span) (types.Effect, types.Safety) {
	var eff types.Effect
	safety := types.SafetyDefault
	for _, e := range effects {
		switch e {
		case "pure":
			eff |= types.EffectPure
		case "nothrow":
			eff |= types.EffectNothrow
		case "noalloc":
			eff |= types.EffectNoAlloc
		case "safe":
			safety = types.SafetySafe
		case "trusted":
			safety = types.SafetyTrusted
		case "system":
			safety = types.SafetySystem
		default:
			diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestBadEffect, sp,
				fmt.Sprintf("unknown effect '%s'", e)).Emit()
		}
	}
	return eff, safety
}

func (l *Loader) parseQuals(quals []string, sp source.Span) types.Qual {
	var q types.Qual
	for _, s := range quals {
		switch s {
		case "const":
			q |= types.QualConst
		case "shared":
			q |= types.QualShared
		case "immutable":
			q |= types.QualImmutable
		case "unique":
			q |= types.QualUnique
		case "scope":
			q |= types.QualScope
		case "return":
			q |= types.QualReturn
		default:
			diag.NewReportBuilder(l.Reporter, diag.SevError, diag.ManifestBadAttr, sp,
				fmt.Sprintf("unknown qualifier '%s'", s)).Emit()
		}
	}
	return q
}

// locator assigns spans by scanning the raw manifest bytes forward for
// each quoted name. Approximate but stable, and good enough for caret
// rendering in a format with one declaration per table.
type locator struct {
	content []byte
	file    source.FileID
	off     int
}

func (c *locator) spanFor(name string) source.Span {
	needle := []byte(`"` + name + `"`)
	idx := bytes.Index(c.content[c.off:], needle)
	if idx < 0 {
		// Fall back to the last position rather than the file start so
		// notes still point near the right table.
		start, _ := safecast.Conv[uint32](c.off)
		return source.Span{File: c.file, Start: start, End: start}
	}
	start := c.off + idx + 1
	end := start + len(name)
	c.off = end
	s, _ := safecast.Conv[uint32](start)
	e, _ := safecast.Conv[uint32](end)
	return source.Span{File: c.file, Start: s, End: e}
}
