package envelope

import (
	"github.com/shopspring/decimal"
)

// RowKind classifies one presentation row.
type RowKind int

const (
	// RowContainer is a pure hierarchy node aggregating its children
	RowContainer RowKind = iota

	// RowBucket is a leaf budget envelope
	RowBucket

	// RowAccount is a real ledger account shown beneath its bucket
	RowAccount
)

// AccountRow is one presentation row of a period: a bucket, a real
// account or a container, with the month's values and up to three
// attached targets.
type AccountRow struct {
	Name string
	Kind RowKind

	Budgeted  decimal.Decimal
	Available decimal.Decimal
	Spent     decimal.Decimal

	Absolute Target
	Monthly  Target
	Spending Target

	HasAbsolute bool
	HasMonthly  bool
	HasSpending bool

	InBudget bool
}

// HasGoal reports whether any target is attached to the row
func (r *AccountRow) HasGoal() bool {
	return r.HasAbsolute || r.HasMonthly || r.HasSpending
}

// DisplayGoal returns the single target shown for the row, applying the
// monthly-unless-funded preference.
func (r *AccountRow) DisplayGoal() (Target, bool) {
	return selectDisplayTarget(r.Absolute, r.Monthly, r.Spending,
		r.HasAbsolute, r.HasMonthly, r.HasSpending)
}

// GoalType returns the display target's kind letter, empty without a goal
func (r *AccountRow) GoalType() string {
	goal, ok := r.DisplayGoal()
	if !ok {
		return ""
	}
	return goal.Kind.Letter()
}

// GoalAmount returns the display target's amount, zero without a goal
func (r *AccountRow) GoalAmount() decimal.Decimal {
	goal, ok := r.DisplayGoal()
	if !ok {
		return decimal.Decimal{}
	}
	return goal.Amount
}

// GoalProgress returns the display target's funding ratio; ok is false
// when the row has no goal.
func (r *AccountRow) GoalProgress() (float64, bool) {
	goal, ok := r.DisplayGoal()
	if !ok {
		return 0, false
	}
	return goal.Progress(), true
}

// IsFunded reports whether the display target is fully funded
func (r *AccountRow) IsFunded() bool {
	goal, ok := r.DisplayGoal()
	return ok && goal.IsFunded()
}

// IsUnderfunded reports whether the row needs more budgeting this month.
// Only monthly targets can be underfunded; an absolute target without a
// monthly derivation simply accumulates.
func (r *AccountRow) IsUnderfunded() bool {
	return r.HasMonthly && !r.Monthly.IsFunded()
}

// IsEmpty reports whether the row carries no values and no goal
func (r *AccountRow) IsEmpty() bool {
	return r.Budgeted.IsZero() &&
		r.Available.IsZero() &&
		r.Spent.IsZero() &&
		r.GoalAmount().IsZero() &&
		!r.HasGoal()
}

// PeriodView is the assembled row set for one display month, keyed by the
// bucket hierarchy. Rebuilt cheaply from the computed tables whenever the
// display month or a toggle changes.
type PeriodView struct {
	Month    Month
	ShowReal bool
	Tree     *Tree

	bucketRows  map[string]*AccountRow
	accountRows map[string]*AccountRow
}

// Row returns the presentation row backing a hierarchy node. Container
// nodes without values yield an empty container row.
func (v *PeriodView) Row(n *Node) *AccountRow {
	if n.Real {
		if row, ok := v.accountRows[n.Path]; ok {
			return row
		}
		return &AccountRow{Name: n.Path, Kind: RowAccount}
	}
	if row, ok := v.bucketRows[n.Path]; ok {
		return row
	}
	return &AccountRow{Name: n.Path, Kind: RowContainer, InBudget: true}
}

// BucketRow returns the row for a bucket path, if any
func (v *PeriodView) BucketRow(path string) (*AccountRow, bool) {
	row, ok := v.bucketRows[path]
	return row, ok
}

// AccountRow returns the row for a real account, if any
func (v *PeriodView) AccountRow(account string) (*AccountRow, bool) {
	row, ok := v.accountRows[account]
	return row, ok
}

// IsVisible reports whether the node should be rendered: bucket rows when
// non-empty, account rows when the show-real flag is set and non-empty,
// containers while any descendant is visible.
func (v *PeriodView) IsVisible(i int) bool {
	n := v.Tree.Node(i)
	row := v.Row(n)

	switch row.Kind {
	case RowBucket:
		return !row.IsEmpty()
	case RowAccount:
		return v.ShowReal && !row.IsEmpty()
	default:
		for _, child := range n.Children {
			if v.IsVisible(child) {
				return true
			}
		}
		return false
	}
}

// assemblePeriodView slices the computed tables at one month.
func assemblePeriodView(month Month, showReal bool, table *BucketTable,
	activity *ActivityTable, targets *TargetTables, bucketAccounts map[string][]string) *PeriodView {

	view := &PeriodView{
		Month:       month,
		ShowReal:    showReal,
		bucketRows:  make(map[string]*AccountRow),
		accountRows: make(map[string]*AccountRow),
	}

	ensureBucketRow := func(bucket string) *AccountRow {
		row, ok := view.bucketRows[bucket]
		if !ok {
			row = &AccountRow{Name: bucket, Kind: RowBucket, InBudget: true}
			view.bucketRows[bucket] = row
		}
		return row
	}

	for _, bucket := range table.Buckets() {
		cell, _ := table.Cell(bucket, month)
		row := ensureBucketRow(bucket)
		row.Budgeted = cell.Budgeted
		row.Available = cell.Available
		row.Spent = cell.Activity
	}

	for _, bucket := range targets.Buckets() {
		row := ensureBucketRow(bucket)
		if t, ok := targets.Absolute(bucket, month); ok {
			row.Absolute, row.HasAbsolute = t, true
		}
		if t, ok := targets.Monthly(bucket, month); ok {
			row.Monthly, row.HasMonthly = t, true
		}
		if t, ok := targets.Spending(bucket, month); ok {
			row.Spending, row.HasSpending = t, true
		}
	}

	if showReal {
		for _, key := range activity.Rows() {
			row, ok := view.accountRows[key.Account]
			if !ok {
				row = &AccountRow{Name: key.Account, Kind: RowAccount}
				view.accountRows[key.Account] = row
			}
			if v, ok := activity.Value(key.Bucket, key.Account, month); ok {
				row.Spent = row.Spent.Add(v)
			}
		}
	}

	// The hierarchy covers every bucket row plus, when requested, the
	// real accounts beneath their buckets.
	buckets := make(map[string][]string, len(view.bucketRows))
	for bucket := range view.bucketRows {
		buckets[bucket] = bucketAccounts[bucket]
	}
	view.Tree = BuildTree(buckets, showReal)

	return view
}
