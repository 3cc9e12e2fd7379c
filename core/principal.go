package core

import "strconv"

type Capability uint8

const (
	CapTeacher Capability = 1 << iota
	CapSecretary
)

// Capabilities is the set of staff capabilities held by a principal.
type Capabilities uint8

func NewCapabilities(isTeacher, isSecretary bool) Capabilities {
	var caps Capabilities
	if isTeacher {
		caps |= Capabilities(CapTeacher)
	}
	if isSecretary {
		caps |= Capabilities(CapSecretary)
	}
	return caps
}

func (c Capabilities) Has(cp Capability) bool { return c&Capabilities(cp) != 0 }
func (c Capabilities) IsEmpty() bool          { return c == 0 }

const (
	KindApplicant = "applicant"
	KindStaff     = "staff"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   int
	Kind string
	Name string
	Caps Capabilities
}

func (p Principal) IsApplicant() bool { return p.Kind == KindApplicant }
func (p Principal) IsTeacher() bool   { return p.Kind == KindStaff && p.Caps.Has(CapTeacher) }
func (p Principal) IsSecretary() bool { return p.Kind == KindStaff && p.Caps.Has(CapSecretary) }

// Key identifies the principal across kinds, eg. "staff:3".
func (p Principal) Key() string { return p.Kind + ":" + strconv.Itoa(p.ID) }
