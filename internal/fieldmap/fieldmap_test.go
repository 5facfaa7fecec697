package fieldmap

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapper(t *testing.T, onFailure FailureFunc) (*Mapper, *cryptox.Codec) {
	t.Helper()
	c, err := cryptox.NewCodec("fieldmap-secret", cryptox.LegacyPadDeriver{})
	require.NoError(t, err)
	return New(c, onFailure), c
}

func isEnvelope(s string) bool {
	parts := strings.Split(s, ":")
	return len(parts) == 2 && len(parts[0]) == 32
}

func TestSealCard_AbsentFieldStaysAbsent(t *testing.T) {
	m, _ := newMapper(t, nil)

	sealed, err := m.SealCard(models.CardDetails{CardNumber: "4111111111111111", Expiry: "12/29"})
	require.NoError(t, err)

	assert.True(t, isEnvelope(sealed.CardNumber), "cardNumber should be an envelope: %q", sealed.CardNumber)
	assert.Equal(t, "", sealed.CVV)
	assert.Equal(t, "12/29", sealed.Expiry, "non-sensitive fields are never encrypted")
}

func TestSealOpenCard_RoundTrip(t *testing.T) {
	m, _ := newMapper(t, nil)

	plain := models.CardDetails{
		CardNumber: "4111111111111111", CVV: "123", HolderName: "Jane Roe", Address: "1 Main St",
		SSN: "123-45-6789", DOB: "1990-01-01", Email: "jane@example.com", Phone: "+15550100",
		Password: "pw", IP: "10.0.0.1", Proxy: "socks5://1.2.3.4:1080", Bank: "Chase", Type: "VISA",
		Zip: "10001", City: "New York", State: "NY", Country: "US",
		Expiry: "01/30", UserAgent: "Mozilla/5.0", VideoLink: "https://example.com/v.mp4",
	}

	sealed, err := m.SealCard(plain)
	require.NoError(t, err)
	for _, f := range CardSchema.Fields {
		v := *f.Ref(&sealed)
		assert.True(t, isEnvelope(v), "%s should be sealed, got %q", f.Name, v)
	}
	assert.Equal(t, plain.UserAgent, sealed.UserAgent)
	assert.Equal(t, plain.VideoLink, sealed.VideoLink)

	if diff := cmp.Diff(plain, m.OpenCard(sealed)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenCard_LegacyPlaintext(t *testing.T) {
	m, _ := newMapper(t, nil)

	legacy := models.CardDetails{CardNumber: "4000000000000002", Bank: "Citi"}
	assert.Equal(t, legacy, m.OpenCard(legacy))
}

func TestOpenCard_ReportsFailures(t *testing.T) {
	var failed []string
	m, _ := newMapper(t, func(record, field string, res cryptox.Result) {
		assert.Equal(t, cryptox.PassThroughFailed, res.Outcome)
		failed = append(failed, record+"."+field)
	})

	broken := strings.Repeat("0", 32) + ":zz"
	got := m.OpenCard(models.CardDetails{CVV: broken, Bank: "legacy bank"})

	assert.Equal(t, broken, got.CVV)
	assert.Equal(t, "legacy bank", got.Bank)
	assert.Equal(t, []string{"card.cvv"}, failed)
}

func TestSealOpenProxy(t *testing.T) {
	m, _ := newMapper(t, nil)

	sealed, err := m.SealProxy(models.ProxyCredentials{Host: "1.2.3.4", Port: "8080"})
	require.NoError(t, err)
	assert.True(t, isEnvelope(sealed.Host))
	assert.True(t, isEnvelope(sealed.Port))
	assert.Equal(t, "", sealed.Username)
	assert.Equal(t, "", sealed.Password)

	opened := m.OpenProxy(sealed)
	assert.Equal(t, models.ProxyCredentials{Host: "1.2.3.4", Port: "8080"}, opened)
}

type failingCipher struct{}

func (failingCipher) Encrypt(string) (string, error) { return "", errors.New("entropy exhausted") }
func (failingCipher) Open(v string) cryptox.Result   { return cryptox.Result{Value: v} }

func TestSealCard_EncryptError(t *testing.T) {
	m := New(failingCipher{}, nil)

	_, err := m.SealCard(models.CardDetails{CVV: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card.cvv")
}

func TestSchemaNames(t *testing.T) {
	assert.Equal(t, []string{"host", "port", "username", "password"}, ProxySchema.Names())
	assert.Len(t, CardSchema.Names(), 17)
	assert.Equal(t, "cardNumber", CardSchema.Names()[0])
}

func TestSealLegacy(t *testing.T) {
	m, codec := newMapper(t, nil)

	sealedNumber, err := codec.Encrypt("4111111111111111")
	require.NoError(t, err)
	broken := strings.Repeat("0", 32) + ":zz"

	rec := models.CardDetails{CardNumber: sealedNumber, CVV: broken, Bank: "Chase", Expiry: "01/30"}
	got, mig, err := SealLegacy(m, CardSchema, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"bank"}, mig.Sealed)
	assert.Equal(t, []string{"cvv"}, mig.Failed)
	assert.True(t, mig.Changed())

	assert.Equal(t, sealedNumber, got.CardNumber, "existing envelopes are not rewritten")
	assert.Equal(t, broken, got.CVV)
	assert.True(t, isEnvelope(got.Bank))
	assert.Equal(t, "Chase", codec.Decrypt(got.Bank))
	assert.Equal(t, "01/30", got.Expiry)

	again, mig, err := SealLegacy(m, CardSchema, got)
	require.NoError(t, err)
	assert.False(t, mig.Changed())
	assert.Equal(t, got, again)
}

type legacyFailingCipher struct{ failingCipher }

func (legacyFailingCipher) Open(v string) cryptox.Result {
	return cryptox.Result{Value: v, Outcome: cryptox.PassThroughLegacy}
}

func TestSealLegacy_EncryptError(t *testing.T) {
	m := New(legacyFailingCipher{}, nil)

	_, _, err := SealLegacy(m, ProxySchema, models.ProxyCredentials{Host: "10.0.0.1"})
	assert.ErrorContains(t, err, "encrypt proxy.host")
}
