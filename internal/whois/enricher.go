// Package whois looks up the registration metadata of domains.
package whois

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"domainlens/internal/domain"
	"domainlens/internal/metrics"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"
)

// ErrLookup marks a WHOIS query or response that could not be used.
var ErrLookup = errors.New("whois lookup failed")

// Client performs a raw WHOIS query. *whois.Client satisfies it.
type Client interface {
	Whois(domain string, servers ...string) (string, error)
}

// Enricher resolves the registration data of a domain name
type Enricher struct {
	client Client
	logger *slog.Logger
}

// NewEnricher creates an enricher backed by a likexian/whois client
func NewEnricher(timeout time.Duration, logger *slog.Logger) *Enricher {
	return NewEnricherWithClient(whois.NewClient().SetTimeout(timeout), logger)
}

// NewEnricherWithClient creates an enricher over any WHOIS client
func NewEnricherWithClient(client Client, logger *slog.Logger) *Enricher {
	return &Enricher{client: client, logger: logger}
}

// Lookup queries WHOIS for the registrable part of name and parses the answer.
// An unregistered domain yields a *domain.NotFoundError.
func (e *Enricher) Lookup(ctx context.Context, name string) (reg *domain.Registration, err error) {
	defer func() { metrics.RecordWhoisLookup(err) }()

	registrable, err := RegistrableDomain(name)
	if err != nil {
		return nil, err
	}

	text, err := e.query(ctx, registrable)
	if err != nil {
		return nil, err
	}

	reg, err = ParseRegistration(text)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("registration", registrable)
		}
		return nil, err
	}

	e.logger.Debug("WHOIS lookup completed",
		"domain", name,
		"registrable", registrable,
		"has_registrar", reg.Registrar != nil,
	)
	return reg, nil
}

// query runs the blocking client call so that ctx can abandon it.
func (e *Enricher) query(ctx context.Context, name string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := e.client.Whois(name)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrLookup, name, r.err)
		}
		return r.text, nil
	}
}

// RegistrableDomain reduces a host name to the part a registrar sells,
// e.g. "blog.shop.example.co.uk" -> "example.co.uk".
func RegistrableDomain(name string) (string, error) {
	parsed := domain.ParseName(name)
	if parsed.TLD == "" {
		return "", domain.NewValidationError("name", "must contain a top-level domain")
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(parsed.Name)
	if err != nil {
		return "", domain.NewValidationError("name", err.Error())
	}
	return registrable, nil
}

// availablePatterns are phrases registries use for names nobody holds.
var availablePatterns = []string{
	"no match for",
	"not found",
	"no data found",
	"no entries found",
	"status: free",
	"status: available",
	"no object found",
	"object does not exist",
	"domain not found",
	"no such domain",
}

// ParseRegistration extracts registrar, dates and status from a WHOIS response
func ParseRegistration(text string) (*domain.Registration, error) {
	info, err := whoisparser.Parse(text)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) || looksAvailable(text) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}

	reg := &domain.Registration{}
	if info.Registrar != nil && info.Registrar.Name != "" {
		reg.Registrar = stringPtr(info.Registrar.Name)
	}
	if info.Domain != nil {
		if len(info.Domain.Status) > 0 {
			reg.Status = stringPtr(strings.ToLower(info.Domain.Status[0]))
		}
		reg.RegisteredAt = parseDate(info.Domain.CreatedDate)
		reg.ExpiresAt = parseDate(info.Domain.ExpirationDate)
	}
	return reg, nil
}

func looksAvailable(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range availablePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// dateLayouts covers the date formats seen across registries.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
}

// parseDate returns nil for empty or unrecognized dates
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func stringPtr(s string) *string {
	return &s
}
