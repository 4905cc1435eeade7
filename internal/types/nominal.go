package types

import (
	"fmt"

	"fortio.org/safecast"

	"vesper/internal/source"
)

// ClassInfo stores the nominal metadata for a class handle type. Base and
// Ifaces stay unset until the class-layout collaborator reports them;
// BasesKnown distinguishes "no bases" from "bases not resolved yet", which
// is what lets subtype queries answer "forward" instead of guessing.
type ClassInfo struct {
	Name       source.StringID
	Decl       source.Span
	Base       TypeID   // NoTypeID when the class has no base class
	Ifaces     []TypeID // directly implemented interfaces
	BasesKnown bool
}

// IfaceInfo stores metadata for an interface handle type. Interfaces admit
// no base class, only other interfaces they extend.
type IfaceInfo struct {
	Name       source.StringID
	Decl       source.Span
	Extends    []TypeID
	BasesKnown bool
}

// ValueInfo stores metadata for a value aggregate.
type ValueInfo struct {
	Name source.StringID
	Decl source.Span
}

// RegisterClass allocates a class handle type and returns its TypeID.
func (in *Interner) RegisterClass(name source.StringID, decl source.Span) TypeID {
	slot := in.appendClassInfo(ClassInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindClass, Payload: slot})
}

// RegisterIface allocates an interface handle type and returns its TypeID.
func (in *Interner) RegisterIface(name source.StringID, decl source.Span) TypeID {
	slot := in.appendIfaceInfo(IfaceInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindIface, Payload: slot})
}

// RegisterValue allocates a value aggregate type and returns its TypeID.
func (in *Interner) RegisterValue(name source.StringID, decl source.Span) TypeID {
	if in.values == nil {
		in.values = append(in.values, ValueInfo{})
	}
	in.values = append(in.values, ValueInfo{Name: name, Decl: decl})
	slot, err := safecast.Conv[uint32](len(in.values) - 1)
	if err != nil {
		panic(fmt.Errorf("value info overflow: %w", err))
	}
	return in.internRaw(Type{Kind: KindValue, Payload: slot})
}

// SetClassBases records the resolved base class and interface list and
// marks the bases as known.
func (in *Interner) SetClassBases(id, base TypeID, ifaces []TypeID) {
	info := in.classInfo(id)
	if info == nil {
		return
	}
	info.Base = base
	info.Ifaces = append([]TypeID(nil), ifaces...)
	info.BasesKnown = true
}

// SetIfaceBases records the interfaces this interface extends.
func (in *Interner) SetIfaceBases(id TypeID, extends []TypeID) {
	info := in.ifaceInfo(id)
	if info == nil {
		return
	}
	info.Extends = append([]TypeID(nil), extends...)
	info.BasesKnown = true
}

// ClassInfo returns metadata for the provided class TypeID.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	info := in.classInfo(id)
	if info == nil {
		return nil, false
	}
	return info, true
}

// IfaceInfo returns metadata for the provided interface TypeID.
func (in *Interner) IfaceInfo(id TypeID) (*IfaceInfo, bool) {
	info := in.ifaceInfo(id)
	if info == nil {
		return nil, false
	}
	return info, true
}

// ValueInfo returns metadata for the provided value aggregate TypeID.
func (in *Interner) ValueInfo(id TypeID) (*ValueInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindValue {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.values) {
		return nil, false
	}
	return &in.values[tt.Payload], true
}

func (in *Interner) classInfo(id TypeID) *ClassInfo {
	if id == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.classes) {
		return nil
	}
	return &in.classes[tt.Payload]
}

func (in *Interner) ifaceInfo(id TypeID) *IfaceInfo {
	if id == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindIface {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.ifaces) {
		return nil
	}
	return &in.ifaces[tt.Payload]
}

func (in *Interner) appendClassInfo(info ClassInfo) uint32 {
	in.classes = append(in.classes, info)
	slot, err := safecast.Conv[uint32](len(in.classes) - 1)
	if err != nil {
		panic(fmt.Errorf("class info overflow: %w", err))
	}
	return slot
}

func (in *Interner) appendIfaceInfo(info IfaceInfo) uint32 {
	in.ifaces = append(in.ifaces, info)
	slot, err := safecast.Conv[uint32](len(in.ifaces) - 1)
	if err != nil {
		panic(fmt.Errorf("iface info overflow: %w", err))
	}
	return slot
}
