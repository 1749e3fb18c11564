package domain

import (
	"time"
)

// StatusActive is the status given to a domain the first time it is ingested.
const StatusActive = "active"

// Domain represents a registered internet domain name.
// Name is the identity key; SLD and TLD are always derived from it by ParseName.
type Domain struct {
	ID           string
	Name         string     // Full normalized (lowercase) domain name, e.g. "techstartup.com"
	SLD          string     // Second-level label, e.g. "techstartup"
	TLD          string     // Top-level label including the leading dot, e.g. ".com"
	Status       *string    // Externally sourced (pointer = nullable)
	Registrar    *string    // Externally sourced
	RegisteredAt *time.Time // Externally sourced
	ExpiresAt    *time.Time // Externally sourced
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Keywords is populated by read paths that join keyword associations.
	Keywords []DomainKeyword
}

// Registration holds the externally sourced metadata of a domain (WHOIS).
type Registration struct {
	Status       *string
	Registrar    *string
	RegisteredAt *time.Time
	ExpiresAt    *time.Time
}

// DomainConflictPolicy decides what an upsert does when the domain already exists.
type DomainConflictPolicy int

const (
	// DomainKeep leaves an existing domain untouched (monitor and seed paths).
	DomainKeep DomainConflictPolicy = iota
	// DomainTouch bumps UpdatedAt on an existing domain (bulk ingestion path).
	DomainTouch
)

func (p DomainConflictPolicy) String() string {
	switch p {
	case DomainKeep:
		return "keep"
	case DomainTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// NewDomain builds a fresh, not yet persisted domain from a parsed name.
func NewDomain(parsed ParsedName) *Domain {
	now := time.Now().UTC()
	status := StatusActive
	return &Domain{
		Name:      parsed.Name,
		SLD:       parsed.SLD,
		TLD:       parsed.TLD,
		Status:    &status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// KeywordVolumes returns the search volumes of the joined keywords, in position order.
func (d *Domain) KeywordVolumes() []int64 {
	volumes := make([]int64, 0, len(d.Keywords))
	for _, dk := range d.Keywords {
		if dk.Keyword != nil {
			volumes = append(volumes, dk.Keyword.SearchVolume)
		}
	}
	return volumes
}

// Score computes the advisory quality score of the domain from its joined keywords.
func (d *Domain) Score(now time.Time) int {
	return Score(d.KeywordVolumes(), len(d.Keywords), d.RegisteredAt, now)
}

// ApplyRegistration copies the non-nil fields of reg onto the domain.
func (d *Domain) ApplyRegistration(reg Registration) {
	if reg.Status != nil {
		d.Status = reg.Status
	}
	if reg.Registrar != nil {
		d.Registrar = reg.Registrar
	}
	if reg.RegisteredAt != nil {
		d.RegisteredAt = reg.RegisteredAt
	}
	if reg.ExpiresAt != nil {
		d.ExpiresAt = reg.ExpiresAt
	}
}
