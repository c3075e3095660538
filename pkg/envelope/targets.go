package envelope

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Interval is the recurrence period of a spending declaration.
type Interval int

const (
	// IntervalNone marks a non-recurring goal
	IntervalNone Interval = iota
	// IntervalDay recurs daily
	IntervalDay
	// IntervalWeek recurs weekly
	IntervalWeek
	// IntervalMonth recurs monthly
	IntervalMonth
	// IntervalQuarter recurs quarterly
	IntervalQuarter
	// IntervalYear recurs yearly
	IntervalYear
)

var intervalNames = map[string]Interval{
	"daily":     IntervalDay,
	"weekly":    IntervalWeek,
	"monthly":   IntervalMonth,
	"quarterly": IntervalQuarter,
	"yearly":    IntervalYear,
}

// ParseInterval parses a directive interval keyword
func ParseInterval(s string) (Interval, bool) {
	iv, ok := intervalNames[s]
	return iv, ok
}

// String returns the interval keyword
func (i Interval) String() string {
	for name, iv := range intervalNames {
		if iv == i {
			return name
		}
	}
	return "none"
}

// MonthlyEquivalent distributes a periodic amount over the given calendar
// month, producing the monthly budget figure the recurrence implies.
func (i Interval) MonthlyEquivalent(amount decimal.Decimal, month Month) decimal.Decimal {
	days := decimal.NewFromInt(int64(month.Days()))
	switch i {
	case IntervalDay:
		return two(amount.Mul(days))
	case IntervalWeek:
		return two(amount.Mul(days).Div(decimal.NewFromInt(7)))
	case IntervalQuarter:
		return two(amount.Div(decimal.NewFromInt(3)))
	case IntervalYear:
		return two(amount.Div(decimal.NewFromInt(12)))
	default:
		return two(amount)
	}
}

// GoalKind discriminates the target variants.
type GoalKind int

const (
	// GoalNone means no target is attached
	GoalNone GoalKind = iota

	// GoalTotal is a fixed amount due by an optional date ("T")
	GoalTotal

	// GoalMonthlyDerived is a monthly amount derived from a dated total ("D")
	GoalMonthlyDerived

	// GoalMonthly is a declared recurring monthly amount ("M")
	GoalMonthly

	// GoalSpending is a recurring needed-for-spending amount ("S")
	GoalSpending
)

// Letter returns the single-letter code reported on presentation rows.
func (k GoalKind) Letter() string {
	switch k {
	case GoalTotal:
		return "T"
	case GoalMonthlyDerived:
		return "D"
	case GoalMonthly:
		return "M"
	case GoalSpending:
		return "S"
	default:
		return ""
	}
}

// Funding thresholds for display hints.
var (
	fundedThreshold     = 1.0
	overfundedThreshold = 1.5
)

// Target is a goal evaluated at one (bucket, month): the amount aimed for
// and the reference value measured against it.
type Target struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference decimal.Decimal `json:"referenceAmount"`
	Kind      GoalKind        `json:"goalType"`
}

// IsZero reports whether no target amount is attached
func (t Target) IsZero() bool {
	return t.Amount.IsZero()
}

// Progress returns the funding ratio Reference/Amount rounded to two
// decimals for display. A zero amount yields zero progress, never a fault.
func (t Target) Progress() float64 {
	if t.Amount.IsZero() {
		return 0
	}
	p, _ := t.Reference.Div(t.Amount).Round(2).Float64()
	return p
}

// IsFunded reports whether the target is fully funded
func (t Target) IsFunded() bool {
	return !t.IsZero() && t.Progress() >= fundedThreshold
}

// IsOverfunded reports whether the target holds well more than it needs
func (t Target) IsOverfunded() bool {
	return !t.IsZero() && t.Progress() > overfundedThreshold
}

// TargetTables holds the computed goal tables: per bucket per month, the
// absolute target, the monthly target (declared or derived) and the
// recurring spending target. Cells exist only where a goal applies.
type TargetTables struct {
	absolute map[string]map[Month]Target
	monthly  map[string]map[Month]Target
	spending map[string]map[Month]Target
}

func newTargetTables() *TargetTables {
	return &TargetTables{
		absolute: make(map[string]map[Month]Target),
		monthly:  make(map[string]map[Month]Target),
		spending: make(map[string]map[Month]Target),
	}
}

func setTarget(table map[string]map[Month]Target, bucket string, m Month, t Target) {
	row, ok := table[bucket]
	if !ok {
		row = make(map[Month]Target)
		table[bucket] = row
	}
	row[m] = t
}

func getTarget(table map[string]map[Month]Target, bucket string, m Month) (Target, bool) {
	t, ok := table[bucket][m]
	return t, ok
}

// Absolute returns the bucket's total-by-date target for the month
func (t *TargetTables) Absolute(bucket string, m Month) (Target, bool) {
	return getTarget(t.absolute, bucket, m)
}

// Monthly returns the bucket's monthly target for the month
func (t *TargetTables) Monthly(bucket string, m Month) (Target, bool) {
	return getTarget(t.monthly, bucket, m)
}

// Spending returns the bucket's recurring spending target for the month
func (t *TargetTables) Spending(bucket string, m Month) (Target, bool) {
	return getTarget(t.spending, bucket, m)
}

// Buckets returns every bucket with any goal attached, sorted.
func (t *TargetTables) Buckets() []string {
	seen := make(map[string]bool)
	for _, table := range []map[string]map[Month]Target{t.absolute, t.monthly, t.spending} {
		for b := range table {
			seen[b] = true
		}
	}
	buckets := make([]string, 0, len(seen))
	for b := range seen {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)
	return buckets
}

// computeTargets evaluates every goal directive against the computed
// envelope table, producing the per-month target cells.
func computeTargets(goals []GoalDirective, table *BucketTable, months []Month, currentIdx int) *TargetTables {
	tables := newTargetTables()
	if len(months) == 0 {
		return tables
	}

	monthIdx := make(map[Month]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	for _, g := range goals {
		startMonth := g.Start.Month()
		endMonth := months[len(months)-1]
		if !g.By.Time.IsZero() && g.By.Month().Before(endMonth) {
			endMonth = g.By.Month()
		}

		for _, m := range months {
			if m.Before(startMonth) || m.After(endMonth) {
				continue
			}
			i := monthIdx[m]

			switch {
			case g.Spending:
				amount := g.Interval.MonthlyEquivalent(g.Amount, m)
				if amount.IsZero() {
					continue
				}
				// In-progress months measure the funds set aside before
				// spending; future months measure what was budgeted.
				var ref decimal.Decimal
				if i <= currentIdx {
					cell, _ := table.Cell(g.Bucket, m)
					ref = cell.Available.Sub(cell.Activity)
				} else {
					ref = table.Value(g.Bucket, m, ColumnBudgeted)
				}
				setTarget(tables.spending, g.Bucket, m, Target{
					Amount:    amount,
					Reference: ref,
					Kind:      GoalSpending,
				})

			case !g.Monthly.IsZero():
				setTarget(tables.monthly, g.Bucket, m, Target{
					Amount:    two(g.Monthly),
					Reference: table.Value(g.Bucket, m, ColumnBudgeted),
					Kind:      GoalMonthly,
				})

			default:
				setTarget(tables.absolute, g.Bucket, m, Target{
					Amount:    two(g.Amount),
					Reference: table.Value(g.Bucket, m, ColumnAvailable),
					Kind:      GoalTotal,
				})

				if g.By.Time.IsZero() {
					continue
				}
				// Derived monthly: spread what is still missing evenly
				// over the months left until the target date.
				var prevAvailable decimal.Decimal
				if i > 0 {
					prevAvailable = table.Value(g.Bucket, months[i-1], ColumnAvailable)
				}
				missing := g.Amount.Sub(prevAvailable)
				if !missing.IsPositive() {
					continue
				}
				remaining := MonthsBetween(m, g.By.Month())
				if remaining < 0 {
					continue
				}
				derived := two(missing.Div(decimal.NewFromInt(int64(remaining + 1))))
				setTarget(tables.monthly, g.Bucket, m, Target{
					Amount:    derived,
					Reference: table.Value(g.Bucket, m, ColumnBudgeted),
					Kind:      GoalMonthlyDerived,
				})
			}
		}
	}

	return tables
}

// selectDisplayTarget picks which attached target a row reports as "the"
// goal: the monthly target, unless it is already funded and an absolute
// target exists; the recurring spending target is the fallback. The bool
// is false when the row has no goal at all.
func selectDisplayTarget(absolute, monthly, spending Target, hasAbsolute, hasMonthly, hasSpending bool) (Target, bool) {
	switch {
	case hasMonthly && monthly.IsFunded() && hasAbsolute:
		return absolute, true
	case hasMonthly:
		return monthly, true
	case hasAbsolute:
		return absolute, true
	case hasSpending:
		return spending, true
	default:
		return Target{}, false
	}
}
