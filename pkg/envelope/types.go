package envelope

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date is a custom type that handles date-only JSON values as emitted by
// ledger exports ("2006-01-02"), falling back to full timestamps.
type Date struct {
	time.Time
}

// NewDate returns the date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON implements json.Unmarshaler for Date
func (d *Date) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)

	if str == "" || str == "null" {
		d.Time = time.Time{}
		return nil
	}

	// Try parsing as date only first (YYYY-MM-DD)
	t, err := time.Parse("2006-01-02", str)
	if err == nil {
		d.Time = t
		return nil
	}

	// Try parsing as full timestamp (RFC3339)
	t, err = time.Parse(time.RFC3339, str)
	if err == nil {
		d.Time = t
		return nil
	}

	return fmt.Errorf("unable to parse date: %s", str)
}

// MarshalJSON implements json.Marshaler for Date
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, d.Time.Format("2006-01-02"))), nil
}

// String returns the date as a string
func (d Date) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// Month returns the calendar month containing the date.
func (d Date) Month() Month {
	return MonthOf(d.Time)
}

// Price is a conversion price recorded on a posting, e.g. "10 GBP @ 1.16 EUR".
type Price struct {
	Number   decimal.Decimal `json:"number"`
	Currency string          `json:"currency"`
}

// Posting is a single leg of a ledger transaction
type Posting struct {
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Price    *Price          `json:"price,omitempty"`
}

// Transaction is a dated group of balanced postings from the external
// ledger. The engine never mutates it.
type Transaction struct {
	Date     Date      `json:"date"`
	Payee    string    `json:"payee,omitempty"`
	Postings []Posting `json:"postings"`
}

// Directive is a declarative configuration statement attached to the
// ledger. The first value is the directive keyword ("budget account",
// "mapping", "allocate", "currency", "income account", "target",
// "spending"); the remaining values are its arguments.
type Directive struct {
	Date   Date     `json:"date"`
	Values []string `json:"values"`
}

// Ledger is the full pre-parsed input to a computation run.
type Ledger struct {
	Transactions []Transaction `json:"transactions"`
	Directives   []Directive   `json:"directives"`
}

// two returns d quantized to the currency minor unit (2 decimal places).
func two(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
