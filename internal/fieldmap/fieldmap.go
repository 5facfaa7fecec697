// Package fieldmap converts records between their plain form and their
// encrypted-at-rest form. Each record shape has a static, ordered list of
// sensitive fields; everything else passes through untouched.
//
// The mapper never talks to storage: call ToStorage right before a write
// and FromStorage right after a read.
package fieldmap

import (
	"fmt"

	"github.com/dmitrijs2005/gophmarket/internal/cryptox"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// Cipher is the subset of cryptox.Codec used by the mapper.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Open(value string) cryptox.Result
}

// Field names one sensitive string field of T.
type Field[T any] struct {
	Name string
	Ref  func(*T) *string
}

// Schema is the ordered list of sensitive fields of a record shape.
type Schema[T any] struct {
	Record string
	Fields []Field[T]
}

// Names returns the sensitive field names in declaration order.
func (s Schema[T]) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FailureFunc is notified when a stored value looked like an envelope but
// could not be decrypted and was passed through as-is.
type FailureFunc func(record, field string, res cryptox.Result)

// Mapper applies schemas using a Cipher.
type Mapper struct {
	cipher    Cipher
	onFailure FailureFunc
}

// New returns a Mapper. onFailure may be nil.
func New(c Cipher, onFailure FailureFunc) *Mapper {
	return &Mapper{cipher: c, onFailure: onFailure}
}

// ToStorage returns a copy of rec with every non-empty sensitive field
// replaced by its envelope. Empty fields stay empty, so an absent value is
// never turned into an encrypted empty string.
func ToStorage[T any](m *Mapper, s Schema[T], rec T) (T, error) {
	out := rec
	for _, f := range s.Fields {
		v := f.Ref(&out)
		if *v == "" {
			continue
		}
		enc, err := m.cipher.Encrypt(*v)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("encrypt %s.%s: %w", s.Record, f.Name, err)
		}
		*v = enc
	}
	return out, nil
}

// FromStorage returns a copy of rec with every non-empty sensitive field
// decrypted. Values that cannot be decrypted are kept as stored.
func FromStorage[T any](m *Mapper, s Schema[T], rec T) T {
	out := rec
	for _, f := range s.Fields {
		v := f.Ref(&out)
		if *v == "" {
			continue
		}
		res := m.cipher.Open(*v)
		if res.Outcome == cryptox.PassThroughFailed && m.onFailure != nil {
			m.onFailure(s.Record, f.Name, res)
		}
		*v = res.Value
	}
	return out
}

// CardSchema covers cards, offer cards and card orders.
var CardSchema = Schema[models.CardDetails]{
	Record: "card",
	Fields: []Field[models.CardDetails]{
		{"cardNumber", func(c *models.CardDetails) *string { return &c.CardNumber }},
		{"cvv", func(c *models.CardDetails) *string { return &c.CVV }},
		{"holderName", func(c *models.CardDetails) *string { return &c.HolderName }},
		{"address", func(c *models.CardDetails) *string { return &c.Address }},
		{"ssn", func(c *models.CardDetails) *string { return &c.SSN }},
		{"dob", func(c *models.CardDetails) *string { return &c.DOB }},
		{"email", func(c *models.CardDetails) *string { return &c.Email }},
		{"phone", func(c *models.CardDetails) *string { return &c.Phone }},
		{"password", func(c *models.CardDetails) *string { return &c.Password }},
		{"ip", func(c *models.CardDetails) *string { return &c.IP }},
		{"proxy", func(c *models.CardDetails) *string { return &c.Proxy }},
		{"bank", func(c *models.CardDetails) *string { return &c.Bank }},
		{"type", func(c *models.CardDetails) *string { return &c.Type }},
		{"zip", func(c *models.CardDetails) *string { return &c.Zip }},
		{"city", func(c *models.CardDetails) *string { return &c.City }},
		{"state", func(c *models.CardDetails) *string { return &c.State }},
		{"country", func(c *models.CardDetails) *string { return &c.Country }},
	},
}

// ProxySchema covers proxies and proxy orders.
var ProxySchema = Schema[models.ProxyCredentials]{
	Record: "proxy",
	Fields: []Field[models.ProxyCredentials]{
		{"host", func(p *models.ProxyCredentials) *string { return &p.Host }},
		{"port", func(p *models.ProxyCredentials) *string { return &p.Port }},
		{"username", func(p *models.ProxyCredentials) *string { return &p.Username }},
		{"password", func(p *models.ProxyCredentials) *string { return &p.Password }},
	},
}

// SealCard encrypts the sensitive fields of card details.
func (m *Mapper) SealCard(d models.CardDetails) (models.CardDetails, error) {
	return ToStorage(m, CardSchema, d)
}

// OpenCard decrypts the sensitive fields of card details.
func (m *Mapper) OpenCard(d models.CardDetails) models.CardDetails {
	return FromStorage(m, CardSchema, d)
}

// SealProxy encrypts proxy credentials.
func (m *Mapper) SealProxy(p models.ProxyCredentials) (models.ProxyCredentials, error) {
	return ToStorage(m, ProxySchema, p)
}

// OpenProxy decrypts proxy credentials.
func (m *Mapper) OpenProxy(p models.ProxyCredentials) models.ProxyCredentials {
	return FromStorage(m, ProxySchema, p)
}

// Migration lists what SealLegacy did to one record, by field name.
type Migration struct {
	Sealed []string
	Failed []string
}

// Changed reports whether the record needs to be written back.
func (m Migration) Changed() bool { return len(m.Sealed) > 0 }

// SealLegacy encrypts the sensitive fields of rec that are still stored as
// plaintext. Envelopes are left as they are, including ones that no longer
// open under the current key; those are listed in Migration.Failed.
func SealLegacy[T any](m *Mapper, s Schema[T], rec T) (T, Migration, error) {
	out := rec
	var mig Migration
	for _, f := range s.Fields {
		v := f.Ref(&out)
		if *v == "" {
			continue
		}
		switch m.cipher.Open(*v).Outcome {
		case cryptox.PassThroughLegacy:
			enc, err := m.cipher.Encrypt(*v)
			if err != nil {
				var zero T
				return zero, Migration{}, fmt.Errorf("encrypt %s.%s: %w", s.Record, f.Name, err)
			}
			*v = enc
			mig.Sealed = append(mig.Sealed, f.Name)
		case cryptox.PassThroughFailed:
			mig.Failed = append(mig.Failed, f.Name)
		}
	}
	return out, mig, nil
}
