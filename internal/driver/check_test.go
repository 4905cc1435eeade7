package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vesper/internal/diag"
	"vesper/internal/linkcache"
	"vesper/internal/sym"
	"vesper/internal/testkit"
)

const zooManifest = `
[[interface]]
name = "Speaker"
  [[interface.fn]]
  name = "speak"

[[class]]
name = "Animal"
bases = ["Speaker"]
  [[class.fn]]
  name = "speak"
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
`

func TestCheckBytesCleanRun(t *testing.T) {
	res, err := CheckBytes("zoo.vd.toml", []byte(zooManifest), Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Bag.Items())
	}

	g := res.Graph
	var dog sym.ClassID
	for i := 1; i <= g.Classes.Len(); i++ {
		if g.ClassName(sym.ClassID(i)) == "Dog" {
			dog = sym.ClassID(i)
		}
	}
	if err := testkit.CheckTableInvariants(g); err != nil {
		t.Fatalf("table invariants: %v", err)
	}
	c := g.Classes.Get(dog)
	if c.Stage != sym.ClassTableDone {
		t.Fatalf("Dog table not complete")
	}
	if len(c.Vtbl) != 2 {
		t.Fatalf("Dog table length = %d, want 2 (speak inherited, clone overridden)", len(c.Vtbl))
	}
	if g.Name(c.Vtbl[1]) != "clone" || g.Decls.Get(c.Vtbl[1]).OwnerClass != dog {
		t.Fatalf("slot 1 should hold Dog's own clone")
	}
}

func TestCheckBytesReportsOverrideErrors(t *testing.T) {
	bad := `
[[class]]
name = "A"
  [[class.fn]]
  name = "stop"
  attrs = ["final"]
[[class]]
name = "B"
bases = ["A"]
  [[class.fn]]
  name = "stop"
  attrs = ["override"]
`
	res, err := CheckBytes("bad.vd.toml", []byte(bad), Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("expected errors")
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.OvrFinalOverride {
			found = true
		}
	}
	if !found {
		t.Fatalf("want OvrFinalOverride, got %v", res.Bag.Items())
	}
}

func TestCheckBytesSyntaxFailureStillRenders(t *testing.T) {
	res, err := CheckBytes("broken.vd.toml", []byte("[[class broken"), Options{})
	if err != nil {
		t.Fatalf("syntax failure must not be a hard error: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("want ManifestBadSyntax in the bag")
	}
}

func TestCheckDirDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.vd.toml": "[[class]]\nname = \"Beta\"\n",
		"a.vd.toml": "[[class]]\nname = \"Alpha\"\n",
		"c.vd.toml": "[[class]]\nname = \"Gamma\"\n",
		"skip.toml": "[[class]]\nname = \"Skipped\"\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	res, err := CheckDir(context.Background(), dir, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("check dir: %v", err)
	}
	if len(res.Results) != 3 {
		t.Fatalf("got %d results, want 3 (suffix filter)", len(res.Results))
	}
	want := []string{"a.vd.toml", "b.vd.toml", "c.vd.toml"}
	for i, r := range res.Results {
		if filepath.Base(r.Path) != want[i] {
			t.Fatalf("result %d = %s, want %s", i, filepath.Base(r.Path), want[i])
		}
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors")
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(evt Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func TestCheckDirReportsProgress(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "one.vd.toml"), []byte("[[class]]\nname = \"One\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sink := &recordingSink{}

	if _, err := CheckDir(context.Background(), dir, Options{Progress: sink}); err != nil {
		t.Fatalf("check dir: %v", err)
	}

	counts := map[Status]int{}
	for _, ev := range sink.events {
		counts[ev.Status]++
		if filepath.Base(ev.File) != "one.vd.toml" {
			t.Fatalf("unexpected file in event: %s", ev.File)
		}
	}
	if counts[StatusQueued] != 1 || counts[StatusWorking] != 1 || counts[StatusDone] != 1 {
		t.Fatalf("event counts = %v", counts)
	}
}

func TestCheckDirEmpty(t *testing.T) {
	res, err := CheckDir(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("check dir: %v", err)
	}
	if len(res.Results) != 0 || res.HasErrors() {
		t.Fatalf("empty directory must produce an empty result")
	}
}

func TestEmitCacheRoundTrip(t *testing.T) {
	cacheDir := t.TempDir()
	res, err := CheckBytes("zoo.vd.toml", []byte(zooManifest), Options{
		EmitCache: true,
		CacheDir:  cacheDir,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	cache, err := linkcache.OpenAt(cacheDir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	var payload linkcache.Payload
	ok, err := cache.Get(res.Digest, &payload)
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if len(payload.Classes) != 2 {
		t.Fatalf("cached %d classes, want 2", len(payload.Classes))
	}
	for _, c := range payload.Classes {
		if c.Name == "Dog" {
			if len(c.Slots) != 2 {
				t.Fatalf("Dog cached with %d slots", len(c.Slots))
			}
			if c.Slots[1].Intro == "" {
				t.Fatalf("covariant clone must cache its introductory type")
			}
		}
	}
}
