// Package linkcache persists finalized dispatch-table layouts for the
// code-generation collaborator so an unchanged unit never needs a second
// resolution pass.
package linkcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"vesper/internal/project"
	"vesper/internal/sym"
)

// Schema version. Increment whenever Payload changes shape.
const schemaVersion uint16 = 1

// ErrSchemaMismatch marks a cache entry written by a different build.
var ErrSchemaMismatch = errors.New("link cache schema mismatch")

// Cache stores per-unit table layouts on disk keyed by content digest.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the serialized form of one resolved unit.
type Payload struct {
	Schema uint16
	Unit   string
	Digest project.Digest

	Classes []ClassLayout
}

// ClassLayout is one class's dispatch surface.
type ClassLayout struct {
	Name   string
	Slots  []SlotEntry
	Finals []string
}

// SlotEntry describes a single dispatch slot.
type SlotEntry struct {
	Name  string
	Sig   string
	Final bool
	Intro string // introductory type label, empty when none
}

// Open initializes the cache at the standard location:
// $XDG_CACHE_HOME/<app>/units, falling back to ~/.cache.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "units")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenAt initializes the cache at an explicit directory, for tests and
// the --cache-dir override.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".vtbl")
}

// Put serializes a payload and installs it atomically.
func (c *Cache) Put(payload *Payload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(payload.Digest)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

// Get loads a payload by digest. Returns false with no error when the
// entry does not exist; ErrSchemaMismatch when it was written by an
// incompatible build.
func (c *Cache) Get(key project.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode link cache entry: %w", err)
	}
	if out.Schema != schemaVersion {
		return false, ErrSchemaMismatch
	}
	return true, nil
}

// DropAll removes every cached unit, for format migrations.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Export captures every completed class in the graph into a payload.
// Signature and introductory-type labels are rendered with the provided
// labeler so the cache stays independent of live interner state.
func Export(g *sym.Graph, unit string, digest project.Digest, label func(d sym.DeclID) (sig, intro string)) *Payload {
	payload := &Payload{
		Schema: schemaVersion,
		Unit:   unit,
		Digest: digest,
	}
	for i := 1; i <= g.Classes.Len(); i++ {
		id := sym.ClassID(i)
		c := g.Classes.Get(id)
		if c == nil || c.Stage != sym.ClassTableDone {
			continue
		}
		layout := ClassLayout{Name: g.ClassName(id)}
		for _, did := range c.Vtbl {
			d := g.Decls.Get(did)
			if d == nil {
				continue
			}
			sig, intro := label(did)
			layout.Slots = append(layout.Slots, SlotEntry{
				Name:  g.Name(did),
				Sig:   sig,
				Final: d.Storage.Has(sym.StorageFinal),
				Intro: intro,
			})
		}
		for _, did := range c.Finals {
			layout.Finals = append(layout.Finals, g.Name(did))
		}
		payload.Classes = append(payload.Classes, layout)
	}
	return payload
}
