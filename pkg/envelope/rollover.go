package envelope

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Column selects one of the per-month bucket values. Rows are accessed
// through typed selectors, never string keys.
type Column int

const (
	// ColumnActivity is the month's net envelope activity
	ColumnActivity Column = iota

	// ColumnBudgeted is the amount manually allocated that month
	ColumnBudgeted

	// ColumnAvailable is the carried balance after rollover
	ColumnAvailable
)

// BucketMonth is one (bucket, month) cell of the envelope table.
// Available always satisfies the rollover recurrence against the previous
// month's cell.
type BucketMonth struct {
	Activity  decimal.Decimal `json:"activity"`
	Budgeted  decimal.Decimal `json:"budgeted"`
	Available decimal.Decimal `json:"available"`
}

// value returns the selected column.
func (c BucketMonth) value(col Column) decimal.Decimal {
	switch col {
	case ColumnBudgeted:
		return c.Budgeted
	case ColumnAvailable:
		return c.Available
	default:
		return c.Activity
	}
}

// BucketTable is the fully computed envelope table: every bucket crossed
// with every month of the period. Cells missing from the inputs are
// zero-filled before rollover so all arithmetic sees complete rows.
type BucketTable struct {
	months   []Month
	monthIdx map[Month]int
	rows     map[string][]BucketMonth
}

// Months returns the computed month sequence in chronological order
func (t *BucketTable) Months() []Month {
	return t.months
}

// Buckets returns every bucket row, sorted
func (t *BucketTable) Buckets() []string {
	buckets := make([]string, 0, len(t.rows))
	for b := range t.rows {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)
	return buckets
}

// Cell returns the (bucket, month) cell; ok is false when the bucket or
// month is unknown.
func (t *BucketTable) Cell(bucket string, month Month) (BucketMonth, bool) {
	row, ok := t.rows[bucket]
	if !ok {
		return BucketMonth{}, false
	}
	i, ok := t.monthIdx[month]
	if !ok {
		return BucketMonth{}, false
	}
	return row[i], true
}

// Value returns one column of the (bucket, month) cell, zero when absent.
func (t *BucketTable) Value(bucket string, month Month, col Column) decimal.Decimal {
	cell, ok := t.Cell(bucket, month)
	if !ok {
		return decimal.Decimal{}
	}
	return cell.value(col)
}

// IncomeSummary is the ledger-wide monthly money flow: how much income is
// available, what rolled in overspent, what was budgeted, what is
// pre-committed to next month and what is still to be budgeted. Budgeted
// and Budgeted Future are stored as negative magnitudes (consumptions of
// income) so that the To Be Budgeted identity stays additive.
type IncomeSummary struct {
	months   []Month
	monthIdx map[Month]int

	availIncome    []decimal.Decimal
	overspent      []decimal.Decimal
	budgeted       []decimal.Decimal
	budgetedFuture []decimal.Decimal
	toBeBudgeted   []decimal.Decimal

	// Detail rows
	income        []decimal.Decimal
	rolloverFunds []decimal.Decimal
	stealing      []decimal.Decimal
}

// Months returns the computed month sequence
func (s *IncomeSummary) Months() []Month {
	return s.months
}

func (s *IncomeSummary) at(values []decimal.Decimal, m Month) decimal.Decimal {
	i, ok := s.monthIdx[m]
	if !ok {
		return decimal.Decimal{}
	}
	return values[i]
}

// AvailIncome returns the running balance of unassigned funds for the month
func (s *IncomeSummary) AvailIncome(m Month) decimal.Decimal {
	return s.at(s.availIncome, m)
}

// Overspent returns the total shortfall rolling in from the prior month
func (s *IncomeSummary) Overspent(m Month) decimal.Decimal {
	return s.at(s.overspent, m)
}

// Budgeted returns the month's total allocations as a negative consumption
func (s *IncomeSummary) Budgeted(m Month) decimal.Decimal {
	return s.at(s.budgeted, m)
}

// BudgetedFuture returns the amount pre-committed to next month's
// budgeting, as a negative consumption
func (s *IncomeSummary) BudgetedFuture(m Month) decimal.Decimal {
	return s.at(s.budgetedFuture, m)
}

// ToBeBudgeted returns the residual unassigned funds for the month
func (s *IncomeSummary) ToBeBudgeted(m Month) decimal.Decimal {
	return s.at(s.toBeBudgeted, m)
}

// Income returns the raw net income posted in the month
func (s *IncomeSummary) Income(m Month) decimal.Decimal {
	return s.at(s.income, m)
}

// RolloverFunds returns the prior month's running total carried into the
// month (the starting balance for the first month).
func (s *IncomeSummary) RolloverFunds(m Month) decimal.Decimal {
	return s.at(s.rolloverFunds, m)
}

// StealingFromFuture reports how far next month's commitments push the
// month's remaining funds negative; zero when the one-month projection
// stays non-negative.
func (s *IncomeSummary) StealingFromFuture(m Month) decimal.Decimal {
	return s.at(s.stealing, m)
}

// isIncomeBucket reports whether the bucket belongs to the income side of
// the ledger rather than to an envelope.
func isIncomeBucket(bucket string) bool {
	return bucket == IncomeBucket || strings.HasPrefix(bucket, IncomeBucket+HierarchyDelimiter)
}

// computeRollover runs the cross-month state machine over the activity
// table and the allocations: per-bucket chronological rollover of positive
// balances, then the ledger-wide income aggregation.
//
// months must be sorted and non-empty; currentIdx is the index of the
// display "current" month within it. Positive balances carry forward while
// the previous month is at or before the current month, or always when
// futureRollover is set. Negative balances never carry; they surface in
// the next month's Overspent instead.
func computeRollover(months []Month, currentIdx int, futureRollover bool,
	activity *ActivityTable, allocations []Allocation,
	opening decimal.Decimal) (*BucketTable, *IncomeSummary) {

	monthIdx := make(map[Month]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	// Collect the bucket universe: every bucket with activity plus every
	// allocated bucket, income buckets excluded.
	bucketSet := make(map[string]bool)
	for _, b := range activity.Buckets() {
		if !isIncomeBucket(b) {
			bucketSet[b] = true
		}
	}
	for _, a := range allocations {
		if _, ok := monthIdx[a.Month]; ok && !isIncomeBucket(a.Bucket) {
			bucketSet[a.Bucket] = true
		}
	}

	table := &BucketTable{
		months:   months,
		monthIdx: monthIdx,
		rows:     make(map[string][]BucketMonth, len(bucketSet)),
	}
	for b := range bucketSet {
		row := make([]BucketMonth, len(months))
		for i, m := range months {
			row[i].Activity = activity.BucketActivity(b, m)
		}
		table.rows[b] = row
	}
	for _, a := range allocations {
		i, ok := monthIdx[a.Month]
		if !ok || isIncomeBucket(a.Bucket) {
			continue
		}
		row := table.rows[a.Bucket]
		row[i].Budgeted = row[i].Budgeted.Add(a.Amount)
	}

	// Per-bucket rollover, chronological and independent per bucket.
	for _, row := range table.rows {
		for i := range months {
			carry := decimal.Decimal{}
			if i > 0 {
				prev := row[i-1].Available
				withinHorizon := futureRollover || i-1 <= currentIdx
				if prev.IsPositive() && withinHorizon {
					carry = prev
				}
			}
			row[i].Available = carry.Add(row[i].Budgeted).Add(row[i].Activity)
		}
	}

	summary := &IncomeSummary{
		months:         months,
		monthIdx:       monthIdx,
		availIncome:    make([]decimal.Decimal, len(months)),
		overspent:      make([]decimal.Decimal, len(months)),
		budgeted:       make([]decimal.Decimal, len(months)),
		budgetedFuture: make([]decimal.Decimal, len(months)),
		toBeBudgeted:   make([]decimal.Decimal, len(months)),
		income:         make([]decimal.Decimal, len(months)),
		rolloverFunds:  make([]decimal.Decimal, len(months)),
		stealing:       make([]decimal.Decimal, len(months)),
	}

	// Raw income per month: the activity routed to income buckets.
	for i, m := range months {
		var income decimal.Decimal
		for _, b := range activity.Buckets() {
			if isIncomeBucket(b) {
				income = income.Add(activity.BucketActivity(b, m))
			}
		}
		summary.income[i] = income
		summary.availIncome[i] = income
	}
	summary.availIncome[0] = summary.availIncome[0].Add(opening)

	// Overspent: prior-month negative balances, ledger-wide.
	for i := 1; i < len(months); i++ {
		var overspent decimal.Decimal
		for _, row := range table.rows {
			if prev := row[i-1].Available; prev.IsNegative() {
				overspent = overspent.Add(prev)
			}
		}
		summary.overspent[i] = overspent
	}

	// Budgeted: total allocations shown as a negative consumption.
	for i := range months {
		var total decimal.Decimal
		for _, row := range table.rows {
			total = total.Add(row[i].Budgeted)
		}
		summary.budgeted[i] = total.Neg()
	}

	// Avail Income accumulates the prior month's unassigned funds.
	for i := 1; i < len(months); i++ {
		summary.availIncome[i] = summary.availIncome[i].
			Add(summary.availIncome[i-1]).
			Add(summary.overspent[i-1]).
			Add(summary.budgeted[i-1])
	}

	// Budgeted Future: one-month lookahead only. The running total that
	// can be pre-applied to next month is capped by what next month
	// actually budgets, and stored negative like Budgeted.
	for i := range months {
		running := summary.availIncome[i].Add(summary.overspent[i]).Add(summary.budgeted[i])
		if i == len(months)-1 || running.IsNegative() {
			continue
		}
		needNext := summary.budgeted[i+1].Neg()
		if needNext.LessThan(running) {
			summary.budgetedFuture[i] = needNext.Neg()
		} else {
			summary.budgetedFuture[i] = running.Neg()
		}
	}

	// To Be Budgeted closes the identity for every month.
	for i := range months {
		summary.toBeBudgeted[i] = summary.availIncome[i].
			Add(summary.overspent[i]).
			Add(summary.budgeted[i]).
			Add(summary.budgetedFuture[i])
	}

	// Detail rows: carried running totals and the one-month shortfall
	// projection.
	summary.rolloverFunds[0] = opening
	for i := 1; i < len(months); i++ {
		summary.rolloverFunds[i] = summary.availIncome[i-1].
			Add(summary.overspent[i-1]).
			Add(summary.budgeted[i-1])
	}
	for i := 0; i < len(months)-1; i++ {
		remaining := summary.availIncome[i].Add(summary.overspent[i]).Add(summary.budgeted[i])
		if remaining.IsNegative() {
			continue
		}
		cover := remaining.Add(summary.overspent[i+1]).Add(summary.budgeted[i+1])
		if cover.IsNegative() {
			summary.stealing[i] = cover
		}
	}

	return table, summary
}
