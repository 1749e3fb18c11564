package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// MaxDomainLength is the longest textual domain name DNS allows
const MaxDomainLength = 253

// domainPattern accepts dot-separated labels of letters, digits and inner hyphens
var domainPattern = regexp.MustCompile(`(?i)^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9][a-z0-9-]{0,61}[a-z0-9]$`)

// ValidateDomainName checks that name is a fully qualified domain name
// such as "techstartup.com"
func ValidateDomainName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrEmptyDomain
	}
	if len(name) > MaxDomainLength {
		return ErrDomainTooLong
	}
	if !domainPattern.MatchString(name) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidateDomainList checks a bulk ingestion payload.
// Entries only have to be non-blank and short enough; single labels are allowed.
func ValidateDomainList(names []string, maxBatch int) error {
	if len(names) == 0 {
		return ErrEmptyDomainList
	}
	if maxBatch > 0 && len(names) > maxBatch {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyDomains, len(names), maxBatch)
	}

	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("domains[%d]: %w", i, ErrEmptyDomain)
		}
		if len(name) > MaxDomainLength {
			return fmt.Errorf("domains[%d]: %w", i, ErrDomainTooLong)
		}
	}
	return nil
}

// ValidateEmail checks that address is a single bare email address
func ValidateEmail(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address || parsed.Name != "" {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateChangeType checks the label of a reported domain change
func ValidateChangeType(changeType string) error {
	changeType = strings.TrimSpace(changeType)
	if changeType == "" || len(changeType) > 50 {
		return ErrInvalidChangeType
	}
	return nil
}
