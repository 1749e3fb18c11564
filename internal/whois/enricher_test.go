package whois

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"domainlens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const verisignResponse = `   Domain Name: TECHSTARTUP.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.example-registrar.com
   Registrar URL: http://www.example-registrar.com
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 2015-08-14T04:00:00Z
   Registry Expiry Date: 2027-08-13T04:00:00Z
   Registrar: Example Registrar, Inc.
   Registrar IANA ID: 376
   Registrar Abuse Contact Email: abuse@example-registrar.com
   Registrar Abuse Contact Phone: +1.2125551234
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
   Name Server: NS1.EXAMPLE-DNS.COM
   Name Server: NS2.EXAMPLE-DNS.COM
   DNSSEC: unsigned
   URL of the ICANN Whois Inaccuracy Complaint Form: https://www.icann.org/wicf/
>>> Last update of whois database: 2026-10-18T09:12:41Z <<<
`

const unregisteredResponse = `No match for "NOBODYOWNSTHIS-1234.COM".
>>> Last update of whois database: 2026-10-18T09:12:41Z <<<

NOTICE: The expiration date displayed in this record is the date the
registrar's sponsorship of the domain name registration in the registry is
currently set to expire.
`

// MockClient is a mock WHOIS client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Whois(name string, servers ...string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func newTestEnricher(client Client) *Enricher {
	return NewEnricherWithClient(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already registrable", input: "techstartup.com", want: "techstartup.com"},
		{name: "subdomain", input: "blog.techstartup.com", want: "techstartup.com"},
		{name: "multi-label suffix", input: "shop.example.co.uk", want: "example.co.uk"},
		{name: "normalizes case", input: "  TechStartup.COM ", want: "techstartup.com"},
		{name: "no tld", input: "localhost", wantErr: true},
		{name: "bare suffix", input: "co.uk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RegistrableDomain(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2015-08-14T04:00:00Z", time.Date(2015, 8, 14, 4, 0, 0, 0, time.UTC)},
		{"2015-08-14T04:00:00.000Z", time.Date(2015, 8, 14, 4, 0, 0, 0, time.UTC)},
		{"2015-08-14 04:00:00", time.Date(2015, 8, 14, 4, 0, 0, 0, time.UTC)},
		{"2015-08-14", time.Date(2015, 8, 14, 0, 0, 0, 0, time.UTC)},
		{"14-Aug-2015", time.Date(2015, 8, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseDate(tt.input)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("sometime last year"))
}

func TestLookup_Registered(t *testing.T) {
	// Arrange
	client := new(MockClient)
	client.On("Whois", "techstartup.com").Return(verisignResponse, nil)
	enricher := newTestEnricher(client)

	// Act
	reg, err := enricher.Lookup(context.Background(), "www.TechStartup.com")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, reg.Registrar)
	assert.Equal(t, "Example Registrar, Inc.", *reg.Registrar)
	require.NotNil(t, reg.RegisteredAt)
	assert.Equal(t, 2015, reg.RegisteredAt.Year())
	require.NotNil(t, reg.ExpiresAt)
	assert.Equal(t, 2027, reg.ExpiresAt.Year())
	client.AssertExpectations(t)
}

func TestLookup_Unregistered(t *testing.T) {
	client := new(MockClient)
	client.On("Whois", "nobodyownsthis-1234.com").Return(unregisteredResponse, nil)
	enricher := newTestEnricher(client)

	_, err := enricher.Lookup(context.Background(), "nobodyownsthis-1234.com")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "registration", nf.Entity)
}

func TestLookup_ClientError(t *testing.T) {
	client := new(MockClient)
	client.On("Whois", "techstartup.com").Return("", errors.New("connection refused"))
	enricher := newTestEnricher(client)

	_, err := enricher.Lookup(context.Background(), "techstartup.com")

	assert.ErrorIs(t, err, ErrLookup)
}

func TestLookup_InvalidName(t *testing.T) {
	client := new(MockClient)
	enricher := newTestEnricher(client)

	_, err := enricher.Lookup(context.Background(), "localhost")

	assert.ErrorIs(t, err, domain.ErrValidation)
	client.AssertNotCalled(t, "Whois", mock.Anything)
}

func TestLookup_ContextCancelled(t *testing.T) {
	client := new(MockClient)
	release := make(chan time.Time)
	defer close(release)
	client.On("Whois", "techstartup.com").WaitUntil(release).Return(verisignResponse, nil)
	enricher := newTestEnricher(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enricher.Lookup(ctx, "techstartup.com")

	assert.ErrorIs(t, err, context.Canceled)
}
