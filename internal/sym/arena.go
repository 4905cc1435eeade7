package sym

import (
	"fmt"

	"fortio.org/safecast"
)

// Decls stores all declarations in a compact slice-based arena.
type Decls struct {
	data []Decl
}

// NewDecls creates an arena with an optional capacity hint.
func NewDecls(capacity uint32) *Decls {
	if capacity == 0 {
		capacity = 64
	}
	return &Decls{
		data: make([]Decl, 1, capacity+1), // index 0 reserved for NoDeclID
	}
}

// New allocates a declaration and returns its ID.
func (d *Decls) New(decl *Decl) DeclID {
	if decl == nil {
		panic("sym.Decls.New: nil declaration")
	}
	value, err := safecast.Conv[uint32](len(d.data))
	if err != nil {
		panic(fmt.Errorf("decl arena overflow: %w", err))
	}
	id := DeclID(value)
	decl.Slot = NotDispatched
	decl.FinalIndex = NotDispatched
	d.data = append(d.data, *decl)
	return id
}

// Get returns the declaration pointer or nil for an invalid ID.
func (d *Decls) Get(id DeclID) *Decl {
	if !id.IsValid() || int(id) >= len(d.data) {
		return nil
	}
	return &d.data[id]
}

// Len reports the number of stored declarations excluding the sentinel.
func (d *Decls) Len() int { return len(d.data) - 1 }

// Classes stores class records in a compact arena.
type Classes struct {
	data []Class
}

func NewClasses(capacity uint32) *Classes {
	if capacity == 0 {
		capacity = 16
	}
	return &Classes{
		data: make([]Class, 1, capacity+1), // index 0 reserved for NoClassID
	}
}

func (c *Classes) New(class *Class) ClassID {
	if class == nil {
		panic("sym.Classes.New: nil class")
	}
	value, err := safecast.Conv[uint32](len(c.data))
	if err != nil {
		panic(fmt.Errorf("class arena overflow: %w", err))
	}
	id := ClassID(value)
	c.data = append(c.data, *class)
	return id
}

func (c *Classes) Get(id ClassID) *Class {
	if !id.IsValid() || int(id) >= len(c.data) {
		return nil
	}
	return &c.data[id]
}

func (c *Classes) Len() int { return len(c.data) - 1 }

// Ifaces stores interface records in a compact arena.
type Ifaces struct {
	data []Interface
}

func NewIfaces(capacity uint32) *Ifaces {
	if capacity == 0 {
		capacity = 16
	}
	return &Ifaces{
		data: make([]Interface, 1, capacity+1), // index 0 reserved for NoIfaceID
	}
}

func (f *Ifaces) New(iface *Interface) IfaceID {
	if iface == nil {
		panic("sym.Ifaces.New: nil interface")
	}
	value, err := safecast.Conv[uint32](len(f.data))
	if err != nil {
		panic(fmt.Errorf("iface arena overflow: %w", err))
	}
	id := IfaceID(value)
	f.data = append(f.data, *iface)
	return id
}

func (f *Ifaces) Get(id IfaceID) *Interface {
	if !id.IsValid() || int(id) >= len(f.data) {
		return nil
	}
	return &f.data[id]
}

func (f *Ifaces) Len() int { return len(f.data) - 1 }
