// Package columns maps the card and proxy payloads shared by several tables
// to SQL columns. Empty strings are written as NULL so that an absent field
// stays absent in storage.
package columns

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophmarket/internal/server/models"
)

// CardDetails lists the card payload columns in the order used by
// CardDetailArgs and CardDetailScan.
var CardDetails = []string{
	"card_number", "cvv", "holder_name", "address", "ssn", "dob", "email", "phone",
	"password", "ip", "proxy", "bank", "card_type", "zip", "city", "state", "country",
	"expiry", "user_agent", "video_link",
}

// ProxyCredentials lists the proxy credential columns.
var ProxyCredentials = []string{"host", "port", "username", "password"}

// List joins column names with an optional table prefix.
func List(cols []string, prefix string) string {
	if prefix == "" {
		return strings.Join(cols, ", ")
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + "." + c
	}
	return strings.Join(out, ", ")
}

// Placeholders returns "$from, $from+1, ..." for n arguments.
func Placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

// Assignments returns "col = $from, ..." for an UPDATE.
func Assignments(cols []string, from int) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("%s = $%d", c, from+i)
	}
	return strings.Join(out, ", ")
}

// NullString maps "" to NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func cardDetailRefs(d *models.CardDetails) []*string {
	return []*string{
		&d.CardNumber, &d.CVV, &d.HolderName, &d.Address, &d.SSN, &d.DOB, &d.Email, &d.Phone,
		&d.Password, &d.IP, &d.Proxy, &d.Bank, &d.Type, &d.Zip, &d.City, &d.State, &d.Country,
		&d.Expiry, &d.UserAgent, &d.VideoLink,
	}
}

func proxyRefs(p *models.ProxyCredentials) []*string {
	return []*string{&p.Host, &p.Port, &p.Username, &p.Password}
}

// CardDetailArgs returns query arguments for the CardDetails columns.
func CardDetailArgs(d models.CardDetails) []any {
	return nullArgs(cardDetailRefs(&d))
}

// ProxyArgs returns query arguments for the ProxyCredentials columns.
func ProxyArgs(p models.ProxyCredentials) []any {
	return nullArgs(proxyRefs(&p))
}

func nullArgs(refs []*string) []any {
	args := make([]any, len(refs))
	for i, r := range refs {
		args[i] = NullString(*r)
	}
	return args
}

// Scan collects nullable string columns for one row.
type Scan struct {
	values []sql.NullString
}

// NewCardDetailScan returns a Scan sized for the CardDetails columns.
func NewCardDetailScan() *Scan {
	return &Scan{values: make([]sql.NullString, len(CardDetails))}
}

// NewProxyScan returns a Scan sized for the ProxyCredentials columns.
func NewProxyScan() *Scan {
	return &Scan{values: make([]sql.NullString, len(ProxyCredentials))}
}

// Dest returns scan destinations.
func (s *Scan) Dest() []any {
	dest := make([]any, len(s.values))
	for i := range s.values {
		dest[i] = &s.values[i]
	}
	return dest
}

// CardDetails copies scanned values into card details.
func (s *Scan) CardDetails() models.CardDetails {
	var d models.CardDetails
	s.fill(cardDetailRefs(&d))
	return d
}

// ProxyCredentials copies scanned values into proxy credentials.
func (s *Scan) ProxyCredentials() models.ProxyCredentials {
	var p models.ProxyCredentials
	s.fill(proxyRefs(&p))
	return p
}

func (s *Scan) fill(refs []*string) {
	for i, r := range refs {
		*r = s.values[i].String
	}
}
