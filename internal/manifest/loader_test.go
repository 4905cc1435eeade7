package manifest

import (
	"testing"

	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/sym"
	"vesper/internal/types"
)

func newLoaderWorld() (*Loader, *diag.Bag) {
	fs := source.NewFileSet()
	g := sym.NewGraph(sym.Hints{}, nil, nil)
	bag := diag.NewBag(32)
	return NewLoader(fs, g, diag.BagReporter{Bag: bag}), bag
}

func TestLoadClassHierarchy(t *testing.T) {
	l, bag := newLoaderWorld()
	input := `
[[interface]]
name = "Speaker"
  [[interface.fn]]
  name = "speak"
  result = "void"

[[class]]
name = "Animal"
bases = ["Speaker"]
  [[class.fn]]
  name = "speak"
  result = "void"
  [[class.fn]]
  name = "clone"
  result = "Animal"

[[class]]
name = "Dog"
bases = ["Animal"]
  [[class.fn]]
  name = "clone"
  result = "Dog"
  attrs = ["override"]
  effects = ["pure", "safe"]
`
	if err := l.LoadBytes("zoo.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	g := l.Graph
	if g.Classes.Len() != 2 || g.Ifaces.Len() != 1 {
		t.Fatalf("got %d classes, %d interfaces", g.Classes.Len(), g.Ifaces.Len())
	}

	dogType, ok := l.byName["Dog"]
	if !ok {
		t.Fatalf("Dog not registered")
	}
	dogID, _ := g.ClassByType(dogType)
	dog := g.Classes.Get(dogID)
	if len(dog.RawBases) != 1 || len(dog.Members) != 1 {
		t.Fatalf("Dog shape: bases=%d members=%d", len(dog.RawBases), len(dog.Members))
	}

	clone := g.Decls.Get(dog.Members[0])
	if !clone.Storage.Has(sym.StorageOverride) {
		t.Fatalf("attrs not parsed: %v", clone.Storage.Strings())
	}
	if !clone.Effects.Has(types.EffectPure) || clone.Safety != types.SafetySafe {
		t.Fatalf("effects not parsed: %v / %v", clone.Effects, clone.Safety)
	}
	if clone.Raw.Result != dogType {
		t.Fatalf("result type = %d, want Dog handle %d", clone.Raw.Result, dogType)
	}
	if clone.Span.Empty() {
		t.Fatalf("declaration got no span")
	}
}

func TestForwardReferenceAcrossFiles(t *testing.T) {
	l, bag := newLoaderWorld()
	// Derived arrives in an earlier file than its base.
	first := `
[[class]]
name = "Derived"
bases = ["Base"]
`
	second := `
[[class]]
name = "Base"
`
	if err := l.LoadBytes("a.vd.toml", []byte(first)); err != nil {
		t.Fatalf("load a: %v", err)
	}
	if err := l.LoadBytes("b.vd.toml", []byte(second)); err != nil {
		t.Fatalf("load b: %v", err)
	}
	l.Finish()

	if bag.Len() != 0 {
		t.Fatalf("forward reference must not diagnose: %v", bag.Items())
	}
	derivedID, _ := l.Graph.ClassByType(l.byName["Derived"])
	derived := l.Graph.Classes.Get(derivedID)
	if len(derived.RawBases) != 1 || derived.RawBases[0] != l.byName["Base"] {
		t.Fatalf("base name did not resolve across files: %v", derived.RawBases)
	}
}

func TestUnknownTypeDiagnosed(t *testing.T) {
	l, bag := newLoaderWorld()
	input := `
[[class]]
name = "Lonely"
bases = ["Missing"]
  [[class.fn]]
  name = "get"
  result = "Nowhere"
`
	if err := l.LoadBytes("x.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()

	count := 0
	for _, d := range bag.Items() {
		if d.Code == diag.ManifestUnknownType {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("want 2 unknown-type diagnostics, got %d: %v", count, bag.Items())
	}
	// The bad result still materializes as the error sentinel.
	classID, _ := l.Graph.ClassByType(l.byName["Lonely"])
	member := l.Graph.Decls.Get(l.Graph.Classes.Get(classID).Members[0])
	if member.Raw.Result != l.Graph.Types.ErrorSentinel() {
		t.Fatalf("unknown result = %d, want error sentinel", member.Raw.Result)
	}
}

func TestDuplicateTypeDropped(t *testing.T) {
	l, bag := newLoaderWorld()
	input := `
[[class]]
name = "Twice"
[[class]]
name = "Twice"
`
	if err := l.LoadBytes("dup.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.ManifestDuplicateType {
			found = true
		}
	}
	if !found {
		t.Fatalf("want ManifestDuplicateType, got %v", bag.Items())
	}
	if l.Graph.Classes.Len() != 1 {
		t.Fatalf("duplicate must not register twice")
	}
}

func TestBadSyntaxReported(t *testing.T) {
	l, bag := newLoaderWorld()
	if err := l.LoadBytes("broken.vd.toml", []byte("[[class\nname=")); err == nil {
		t.Fatalf("want parse error")
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ManifestBadSyntax {
		t.Fatalf("want one ManifestBadSyntax, got %v", bag.Items())
	}
}

func TestBadAttrAndEffect(t *testing.T) {
	l, bag := newLoaderWorld()
	input := `
[[fn]]
name = "main"
attrs = ["sparkly"]
effects = ["quantum"]
`
	if err := l.LoadBytes("f.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()

	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if len(codes) != 2 || codes[0] != diag.ManifestBadAttr || codes[1] != diag.ManifestBadEffect {
		t.Fatalf("codes = %v", codes)
	}
	if len(l.Graph.FreeFns) != 1 {
		t.Fatalf("free function not registered")
	}
}

func TestPointerAndBuiltinTypes(t *testing.T) {
	l, bag := newLoaderWorld()
	input := `
[[fn]]
name = "copy"
params = ["*int", "string"]
result = "bool"
`
	if err := l.LoadBytes("p.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	d := l.Graph.Decls.Get(l.Graph.FreeFns[0])
	in := l.Graph.Types
	if len(d.Raw.Params) != 2 {
		t.Fatalf("params = %v", d.Raw.Params)
	}
	elem, ok := in.PointerElem(d.Raw.Params[0])
	if !ok || elem != in.Builtins().Int {
		t.Fatalf("first param is not *int")
	}
	if d.Raw.Params[1] != in.Builtins().String || d.Raw.Result != in.Builtins().Bool {
		t.Fatalf("builtin types did not resolve")
	}
}

func TestPlainTypeMember(t *testing.T) {
	l, _ := newLoaderWorld()
	input := `
[[class]]
name = "Holder"
  [[class.fn]]
  name = "count"
  type = "int"
`
	if err := l.LoadBytes("h.vd.toml", []byte(input)); err != nil {
		t.Fatalf("load: %v", err)
	}
	l.Finish()
	classID, _ := l.Graph.ClassByType(l.byName["Holder"])
	member := l.Graph.Decls.Get(l.Graph.Classes.Get(classID).Members[0])
	if member.Raw.PlainType != l.Graph.Types.Builtins().Int {
		t.Fatalf("plain type not recorded")
	}
}
