package envelope

import (
	"time"

	"github.com/shopspring/decimal"
)

// Test fixture helpers shared across the package tests.

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mon(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func day(s string) Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return Date{Time: t}
}

func directive(date, kind string, args ...string) Directive {
	return Directive{
		Date:   day(date),
		Values: append([]string{kind}, args...),
	}
}

func posting(account, amount, currency string) Posting {
	return Posting{Account: account, Amount: dec(amount), Currency: currency}
}

func txn(date, payee string, postings ...Posting) Transaction {
	return Transaction{Date: day(date), Payee: payee, Postings: postings}
}

// budgetConfig is the directive set most tests run against: one checking
// account funding the budget, salary income, groceries and rent mapped to
// named buckets.
func budgetConfig() []Directive {
	return []Directive{
		directive("2024-01-01", "budget account", "Assets:Checking"),
		directive("2024-01-01", "income account", "Income:Salary"),
		directive("2024-01-01", "currency", "USD"),
		directive("2024-01-01", "mapping", "Expenses:Food.*", "Expenses:Food"),
		directive("2024-01-01", "mapping", "Expenses:Rent", "Expenses:Housing:Rent"),
	}
}

func parseTestConfig(directives []Directive) (*Config, *diagnostics) {
	ds := &diagnostics{}
	return ParseConfig(directives, ds), ds
}

// fixedPrices is a PriceSource with static conversion rates per currency.
type fixedPrices map[string]decimal.Decimal

func (p fixedPrices) Rate(currency string, _ time.Time) (decimal.Decimal, bool) {
	rate, ok := p[currency]
	return rate, ok
}
