package envelope

import (
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// DefaultCurrency is used when no valid operating currency is configured
	DefaultCurrency = "USD"

	// IncomeBucket is the pseudo-bucket income postings are routed to
	IncomeBucket = "Income"

	// UnmappedBucket collects accounts no mapping rule matched
	UnmappedBucket = "Unmapped"
)

// Mapping routes account names matching Pattern to Bucket. Rules are
// ordered; the first match wins.
type Mapping struct {
	Pattern *regexp.Regexp
	Bucket  string
}

// Allocation assigns a budgeted amount to a bucket for one month.
type Allocation struct {
	Month  Month
	Bucket string
	Amount decimal.Decimal
}

// GoalDirective is a parsed "target" or "spending" declaration before the
// goal engine turns it into monthly tables.
type GoalDirective struct {
	Start    Date
	Bucket   string
	Amount   decimal.Decimal // absolute target, zero when only monthly
	Monthly  decimal.Decimal // declared pure-monthly amount
	By       Date            // optional target date
	Interval Interval        // set for spending declarations only
	Spending bool
}

// Config is the parsed directive set an engine run operates on.
type Config struct {
	Currency       string
	BudgetAccounts []*regexp.Regexp
	IncomeAccounts []*regexp.Regexp
	Mappings       []Mapping
	Allocations    []Allocation
	Goals          []GoalDirective

	// MaxAllocationDate is the latest allocate directive date, used to
	// derive the default end of the computed period. Zero when no
	// allocations exist.
	MaxAllocationDate time.Time
}

// IsBudgetAccount reports whether the account funds the budget
func (c *Config) IsBudgetAccount(account string) bool {
	for _, re := range c.BudgetAccounts {
		if re.MatchString(account) {
			return true
		}
	}
	return false
}

// IsIncomeAccount reports whether the account is an income source. The
// root "Income" segment counts as income even without a configured
// pattern, matching ledger account-type semantics.
func (c *Config) IsIncomeAccount(account string) bool {
	if account == IncomeBucket || len(account) > len(IncomeBucket) &&
		account[:len(IncomeBucket)+1] == IncomeBucket+":" {
		return true
	}
	for _, re := range c.IncomeAccounts {
		if re.MatchString(account) {
			return true
		}
	}
	return false
}

// Bucket returns the bucket the account maps to: the target of the first
// matching rule, else the account itself.
func (c *Config) Bucket(account string) string {
	for _, m := range c.Mappings {
		if m.Pattern.MatchString(account) {
			return m.Bucket
		}
	}
	return account
}

// ParseConfig extracts the engine configuration from the ledger's
// directives. Malformed directives are skipped and reported through ds;
// parsing never fails outright.
func ParseConfig(directives []Directive, ds *diagnostics) *Config {
	cfg := &Config{Currency: DefaultCurrency}

	for _, d := range directives {
		if len(d.Values) == 0 {
			continue
		}
		kind := d.Values[0]
		args := d.Values[1:]

		switch kind {
		case "budget account":
			re, err := parsePattern(args)
			if err != nil {
				ds.warnf("config", err, "skipping budget account directive")
				continue
			}
			cfg.BudgetAccounts = append(cfg.BudgetAccounts, re)

		case "income account":
			re, err := parsePattern(args)
			if err != nil {
				ds.warnf("config", err, "skipping income account directive")
				continue
			}
			cfg.IncomeAccounts = append(cfg.IncomeAccounts, re)

		case "mapping":
			if len(args) < 2 {
				ds.warnf("config", ErrInvalidDirective, "mapping needs a pattern and a bucket")
				continue
			}
			re, err := regexp.Compile(args[0])
			if err != nil {
				ds.warnf("config", err, "skipping mapping with bad pattern %q", args[0])
				continue
			}
			cfg.Mappings = append(cfg.Mappings, Mapping{Pattern: re, Bucket: args[1]})

		case "allocate":
			if len(args) < 2 {
				ds.warnf("config", ErrInvalidDirective, "allocate needs a bucket and an amount")
				continue
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				ds.warnf("config", errors.Wrap(ErrInvalidAmount, args[1]),
					"skipping allocation for %s", args[0])
				continue
			}
			cfg.Allocations = append(cfg.Allocations, Allocation{
				Month:  d.Date.Month(),
				Bucket: args[0],
				Amount: amount,
			})
			if d.Date.Time.After(cfg.MaxAllocationDate) {
				cfg.MaxAllocationDate = d.Date.Time
			}

		case "currency":
			if len(args) < 1 || len(args[0]) != 3 {
				ds.warnf("config", ErrInvalidCurrency,
					"defaulting to %s", DefaultCurrency)
				continue
			}
			cfg.Currency = args[0]

		case "target":
			goal, err := parseTargetDirective(d.Date, args)
			if err != nil {
				ds.warnf("config", err, "skipping target directive")
				continue
			}
			cfg.Goals = append(cfg.Goals, goal)

		case "spending":
			goal, err := parseSpendingDirective(d.Date, args)
			if err != nil {
				ds.warnf("config", err, "skipping spending directive")
				continue
			}
			cfg.Goals = append(cfg.Goals, goal)
		}
	}

	if len(cfg.BudgetAccounts) == 0 {
		ds.warnf("config", ErrNoBudgetAccounts, "computation proceeds with empty tables")
	}

	return cfg
}

func parsePattern(args []string) (*regexp.Regexp, error) {
	if len(args) < 1 {
		return nil, errors.Wrap(ErrInvalidDirective, "missing pattern")
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "bad pattern %q", args[0])
	}
	return re, nil
}

// parseTargetDirective parses the forms
//
//	target <bucket> <amount>
//	target <bucket> <amount> by <date>
//	target <bucket> monthly <amount>
func parseTargetDirective(date Date, args []string) (GoalDirective, error) {
	if len(args) < 2 {
		return GoalDirective{}, errors.Wrap(ErrInvalidDirective, "target needs a bucket and an amount")
	}

	goal := GoalDirective{Start: date, Bucket: args[0]}

	i := 1
	for i < len(args) {
		switch args[i] {
		case "by":
			if i+1 >= len(args) {
				return GoalDirective{}, errors.Wrap(ErrInvalidDirective, "target: by needs a date")
			}
			t, err := time.Parse("2006-01-02", args[i+1])
			if err != nil {
				return GoalDirective{}, errors.Wrapf(err, "target: bad date %q", args[i+1])
			}
			goal.By = Date{Time: t}
			i += 2
		case "monthly":
			if i+1 >= len(args) {
				return GoalDirective{}, errors.Wrap(ErrInvalidDirective, "target: monthly needs an amount")
			}
			amount, err := decimal.NewFromString(args[i+1])
			if err != nil {
				return GoalDirective{}, errors.Wrapf(ErrInvalidAmount, "target: %q", args[i+1])
			}
			goal.Monthly = amount
			i += 2
		default:
			amount, err := decimal.NewFromString(args[i])
			if err != nil {
				return GoalDirective{}, errors.Wrapf(ErrInvalidAmount, "target: %q", args[i])
			}
			goal.Amount = amount
			i++
		}
	}

	if goal.Amount.IsZero() && goal.Monthly.IsZero() {
		return GoalDirective{}, errors.Wrap(ErrInvalidDirective, "target without any amount")
	}

	return goal, nil
}

// parseSpendingDirective parses
//
//	spending <bucket> <interval> <amount> [by <date>]
func parseSpendingDirective(date Date, args []string) (GoalDirective, error) {
	if len(args) < 3 {
		return GoalDirective{}, errors.Wrap(ErrInvalidDirective, "spending needs a bucket, an interval and an amount")
	}

	interval, ok := ParseInterval(args[1])
	if !ok {
		return GoalDirective{}, errors.Wrapf(ErrInvalidDirective, "spending: unknown interval %q", args[1])
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return GoalDirective{}, errors.Wrapf(ErrInvalidAmount, "spending: %q", args[2])
	}

	goal := GoalDirective{
		Start:    date,
		Bucket:   args[0],
		Amount:   amount,
		Interval: interval,
		Spending: true,
	}

	if len(args) >= 5 && args[3] == "by" {
		t, err := time.Parse("2006-01-02", args[4])
		if err != nil {
			return GoalDirective{}, errors.Wrapf(err, "spending: bad date %q", args[4])
		}
		goal.By = Date{Time: t}
	}

	return goal, nil
}
