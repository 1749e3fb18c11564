package validator

import "errors"

var (
	ErrEmptyDomainList   = errors.New("domain list cannot be empty")
	ErrTooManyDomains    = errors.New("too many domains in one request")
	ErrEmptyDomain       = errors.New("domain name cannot be empty")
	ErrDomainTooLong     = errors.New("domain name must be at most 253 characters")
	ErrInvalidDomain     = errors.New("invalid domain name format")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidChangeType = errors.New("change type must be 1-50 characters")
)
