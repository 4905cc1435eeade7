package sym

// DeclID identifies a declaration in the arena.
type DeclID uint32

// NoDeclID marks the absence of a declaration reference.
const NoDeclID DeclID = 0

// IsValid reports whether the ID refers to an allocated declaration.
func (id DeclID) IsValid() bool { return id != NoDeclID }

// ClassID identifies a class in the arena.
type ClassID uint32

// NoClassID marks the absence of a class reference.
const NoClassID ClassID = 0

// IsValid reports whether the ID refers to an allocated class.
func (id ClassID) IsValid() bool { return id != NoClassID }

// IfaceID identifies an interface in the arena.
type IfaceID uint32

// NoIfaceID marks the absence of an interface reference.
const NoIfaceID IfaceID = 0

// IsValid reports whether the ID refers to an allocated interface.
func (id IfaceID) IsValid() bool { return id != NoIfaceID }
