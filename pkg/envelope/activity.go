package envelope

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BucketAccount keys one row of the activity table: a bucket together with
// the real account the money moved through.
type BucketAccount struct {
	Bucket  string
	Account string
}

// ActivityTable holds net monthly activity per (bucket, account). Values
// are sign-normalized from the ledger's perspective to the budget's:
// income reads positive, envelope spending negative. Cells with no
// matching transactions are absent, not zero.
type ActivityTable struct {
	cells map[BucketAccount]map[Month]decimal.Decimal
}

func newActivityTable() *ActivityTable {
	return &ActivityTable{cells: make(map[BucketAccount]map[Month]decimal.Decimal)}
}

func (t *ActivityTable) add(key BucketAccount, month Month, value decimal.Decimal) {
	row, ok := t.cells[key]
	if !ok {
		row = make(map[Month]decimal.Decimal)
		t.cells[key] = row
	}
	row[month] = row[month].Add(value)
}

// Value returns the cell for (bucket, account, month); ok is false when
// the cell is absent.
func (t *ActivityTable) Value(bucket, account string, month Month) (decimal.Decimal, bool) {
	row, ok := t.cells[BucketAccount{Bucket: bucket, Account: account}]
	if !ok {
		return decimal.Decimal{}, false
	}
	v, ok := row[month]
	return v, ok
}

// Rows returns every (bucket, account) pair with any activity, sorted.
func (t *ActivityTable) Rows() []BucketAccount {
	rows := make([]BucketAccount, 0, len(t.cells))
	for key := range t.cells {
		rows = append(rows, key)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return rows[i].Account < rows[j].Account
	})
	return rows
}

// Buckets returns every bucket with any activity, sorted.
func (t *ActivityTable) Buckets() []string {
	seen := make(map[string]bool)
	var buckets []string
	for key := range t.cells {
		if !seen[key.Bucket] {
			seen[key.Bucket] = true
			buckets = append(buckets, key.Bucket)
		}
	}
	sort.Strings(buckets)
	return buckets
}

// Accounts returns the real accounts mapped into the bucket, sorted.
func (t *ActivityTable) Accounts(bucket string) []string {
	var accounts []string
	for key := range t.cells {
		if key.Bucket == bucket {
			accounts = append(accounts, key.Account)
		}
	}
	sort.Strings(accounts)
	return accounts
}

// BucketActivity sums the month's activity across all accounts of the
// bucket. Absent cells contribute zero.
func (t *ActivityTable) BucketActivity(bucket string, month Month) decimal.Decimal {
	var sum decimal.Decimal
	for key, row := range t.cells {
		if key.Bucket == bucket {
			sum = sum.Add(row[month])
		}
	}
	return sum
}

// AccountActivity sums the month's activity across all buckets for one
// real account.
func (t *ActivityTable) AccountActivity(account string, month Month) decimal.Decimal {
	var sum decimal.Decimal
	for key, row := range t.cells {
		if key.Account == account {
			sum = sum.Add(row[month])
		}
	}
	return sum
}

// computeActivity scans the ledger window and produces the activity table.
// Only transactions touching at least one budget account participate. A
// transaction with any income posting is an income event: its postings are
// currency-converted (recorded price first, then the price source) and
// routed to the Income bucket or their mapped bucket. All other
// transactions are spending events; foreign-currency postings without a
// reconcilable value are skipped with a diagnostic. Sums are quantized to
// the minor unit and sign-flipped at reduction.
func computeActivity(ledger *Ledger, cfg *Config, prices PriceSource, start, end time.Time, ds *diagnostics) *ActivityTable {
	raw := make(map[BucketAccount]map[Month]decimal.Decimal)

	accumulate := func(key BucketAccount, month Month, v decimal.Decimal) {
		row, ok := raw[key]
		if !ok {
			row = make(map[Month]decimal.Decimal)
			raw[key] = row
		}
		row[month] = row[month].Add(v)
	}

	for _, txn := range ledger.Transactions {
		if txn.Date.Time.Before(start) || txn.Date.Time.After(end) {
			continue
		}

		touchesBudget := false
		for _, p := range txn.Postings {
			if cfg.IsBudgetAccount(p.Account) {
				touchesBudget = true
				break
			}
		}
		if !touchesBudget {
			continue
		}

		income := false
		for _, p := range txn.Postings {
			if cfg.IsIncomeAccount(p.Account) {
				income = true
				break
			}
		}

		month := txn.Date.Month()
		for _, p := range txn.Postings {
			if cfg.IsBudgetAccount(p.Account) {
				continue
			}

			value := p.Amount
			if p.Currency != cfg.Currency {
				if !income {
					// Spending events only reconcile operating-currency legs.
					continue
				}
				converted, ok := convertPosting(p, cfg.Currency, prices, txn.Date.Time)
				if !ok {
					ds.warnf("activity", ErrUnreconciledPosting,
						"skipping %s %s posting on %s", p.Amount, p.Currency, p.Account)
					continue
				}
				value = converted
			}

			bucket := cfg.Bucket(p.Account)
			if income && cfg.IsIncomeAccount(p.Account) {
				bucket = IncomeBucket
			}

			accumulate(BucketAccount{Bucket: bucket, Account: p.Account}, month, value)
		}
	}

	// Reduce: quantize and swap sign to be more human readable.
	table := newActivityTable()
	for key, row := range raw {
		for month, sum := range row {
			table.add(key, month, two(sum).Neg())
		}
	}
	return table
}

// convertPosting converts a foreign-currency posting value into the
// operating currency using the recorded price when present, else the
// price source at the transaction date.
func convertPosting(p Posting, currency string, prices PriceSource, at time.Time) (decimal.Decimal, bool) {
	if p.Price != nil && p.Price.Currency == currency {
		return p.Amount.Mul(p.Price.Number), true
	}
	if prices != nil {
		if rate, ok := prices.Rate(p.Currency, at); ok {
			return p.Amount.Mul(rate), true
		}
	}
	return decimal.Decimal{}, false
}

// startingBalance nets the budget accounts' postings dated before the
// period start, seeding the first month's available income.
func startingBalance(ledger *Ledger, cfg *Config, prices PriceSource, start time.Time) decimal.Decimal {
	var balance decimal.Decimal
	for _, txn := range ledger.Transactions {
		if !txn.Date.Time.Before(start) {
			continue
		}
		for _, p := range txn.Postings {
			if !cfg.IsBudgetAccount(p.Account) {
				continue
			}
			if p.Currency == cfg.Currency {
				balance = balance.Add(p.Amount)
				continue
			}
			if converted, ok := convertPosting(p, cfg.Currency, prices, txn.Date.Time); ok {
				balance = balance.Add(converted)
			}
		}
	}
	return two(balance)
}
