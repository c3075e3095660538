package envelope

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_MonthlyEquivalent(t *testing.T) {
	jan := mon("2024-01") // 31 days

	tests := []struct {
		name     string
		interval Interval
		amount   string
		want     string
	}{
		{"daily", IntervalDay, "2", "62"},
		{"weekly", IntervalWeek, "15", "66.43"},
		{"monthly", IntervalMonth, "100", "100"},
		{"quarterly", IntervalQuarter, "300", "100"},
		{"yearly", IntervalYear, "1200", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.interval.MonthlyEquivalent(dec(tt.amount), jan)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseInterval(t *testing.T) {
	iv, ok := ParseInterval("quarterly")
	require.True(t, ok)
	assert.Equal(t, IntervalQuarter, iv)

	_, ok = ParseInterval("fortnightly")
	assert.False(t, ok)
}

func TestTarget_Progress(t *testing.T) {
	half := Target{Amount: dec("100"), Reference: dec("50")}
	assert.Equal(t, 0.5, half.Progress())
	assert.False(t, half.IsFunded())

	full := Target{Amount: dec("100"), Reference: dec("100")}
	assert.Equal(t, 1.0, full.Progress())
	assert.True(t, full.IsFunded())
	assert.False(t, full.IsOverfunded())

	over := Target{Amount: dec("100"), Reference: dec("151")}
	assert.True(t, over.IsOverfunded())

	// A zero amount yields zero progress, never a division fault
	zero := Target{Amount: decimal.Decimal{}, Reference: dec("50")}
	assert.Equal(t, 0.0, zero.Progress())
	assert.False(t, zero.IsFunded())
}

// savingsTable computes a three-month table where Savings:Vacation gets 200
// budgeted each month and spends nothing.
func savingsTable(t *testing.T) (*BucketTable, []Month) {
	t.Helper()
	months := MonthRange(mon("2024-01"), mon("2024-03"))
	allocations := []Allocation{
		allocate("2024-01", "Savings:Vacation", "200"),
		allocate("2024-02", "Savings:Vacation", "200"),
		allocate("2024-03", "Savings:Vacation", "200"),
	}
	table, _ := computeRollover(months, 2, true, newActivityTable(), allocations, decimal.Decimal{})
	return table, months
}

func TestComputeTargets_AbsoluteWithDerivedMonthly(t *testing.T) {
	table, months := savingsTable(t)
	goals := []GoalDirective{{
		Start:  day("2024-01-01"),
		Bucket: "Savings:Vacation",
		Amount: dec("1200"),
		By:     day("2024-06-30"),
	}}

	targets := computeTargets(goals, table, months, 2)

	// Absolute target measures the accumulated balance
	abs, ok := targets.Absolute("Savings:Vacation", mon("2024-02"))
	require.True(t, ok)
	assert.Equal(t, GoalTotal, abs.Kind)
	assert.True(t, abs.Amount.Equal(dec("1200")))
	assert.True(t, abs.Reference.Equal(dec("400")))

	// Derived monthly spreads the missing amount over the months left.
	// January: 1200 still missing over 6 months (Jan..Jun) is 200 a month.
	for _, m := range months {
		monthly, ok := targets.Monthly("Savings:Vacation", m)
		require.True(t, ok, "no derived target for %s", m)
		assert.Equal(t, GoalMonthlyDerived, monthly.Kind)
		assert.True(t, monthly.Amount.Equal(dec("200")), "month %s got %s", m, monthly.Amount)
		assert.True(t, monthly.Reference.Equal(dec("200")))
		assert.True(t, monthly.IsFunded())
	}
}

func TestComputeTargets_DerivedMonthlyStopsWhenReached(t *testing.T) {
	table, months := savingsTable(t)
	goals := []GoalDirective{{
		Start:  day("2024-01-01"),
		Bucket: "Savings:Vacation",
		Amount: dec("350"),
		By:     day("2024-06-30"),
	}}

	targets := computeTargets(goals, table, months, 2)

	// By March the balance (400 entering the month) already exceeds 350,
	// so no derived monthly target remains
	_, ok := targets.Monthly("Savings:Vacation", mon("2024-03"))
	assert.False(t, ok)

	abs, ok := targets.Absolute("Savings:Vacation", mon("2024-03"))
	require.True(t, ok)
	assert.True(t, abs.IsFunded())
}

func TestComputeTargets_GoalWindow(t *testing.T) {
	table, months := savingsTable(t)
	goals := []GoalDirective{{
		Start:  day("2024-02-01"),
		Bucket: "Savings:Vacation",
		Amount: dec("1000"),
		By:     day("2024-02-28"),
	}}

	targets := computeTargets(goals, table, months, 2)

	_, ok := targets.Absolute("Savings:Vacation", mon("2024-01"))
	assert.False(t, ok, "before the goal start")
	_, ok = targets.Absolute("Savings:Vacation", mon("2024-02"))
	assert.True(t, ok)
	_, ok = targets.Absolute("Savings:Vacation", mon("2024-03"))
	assert.False(t, ok, "after the target date")
}

func TestComputeTargets_PureMonthly(t *testing.T) {
	table, months := savingsTable(t)
	goals := []GoalDirective{{
		Start:   day("2024-01-01"),
		Bucket:  "Savings:Vacation",
		Monthly: dec("250"),
	}}

	targets := computeTargets(goals, table, months, 2)

	monthly, ok := targets.Monthly("Savings:Vacation", mon("2024-01"))
	require.True(t, ok)
	assert.Equal(t, GoalMonthly, monthly.Kind)
	assert.True(t, monthly.Amount.Equal(dec("250")))
	// Measured against what was budgeted, not the rolled-over balance
	assert.True(t, monthly.Reference.Equal(dec("200")))
	assert.False(t, monthly.IsFunded())
}

func TestComputeTargets_Spending(t *testing.T) {
	months := MonthRange(mon("2024-01"), mon("2024-02"))
	activity := activityFixture(map[string]map[string]string{
		"Expenses:Food": {"2024-01": "-30"},
	})
	allocations := []Allocation{
		allocate("2024-01", "Expenses:Food", "70"),
		allocate("2024-02", "Expenses:Food", "80"),
	}
	table, _ := computeRollover(months, 0, true, activity, allocations, decimal.Decimal{})

	goals := []GoalDirective{{
		Start:    day("2024-01-01"),
		Bucket:   "Expenses:Food",
		Amount:   dec("70"),
		Interval: IntervalMonth,
		Spending: true,
	}}

	targets := computeTargets(goals, table, months, 0)

	// In-progress months measure the funds set aside before spending
	jan, ok := targets.Spending("Expenses:Food", mon("2024-01"))
	require.True(t, ok)
	assert.Equal(t, GoalSpending, jan.Kind)
	assert.True(t, jan.Reference.Equal(dec("70")), "available 40 minus activity -30, got %s", jan.Reference)
	assert.True(t, jan.IsFunded())

	// Future months measure what was budgeted
	feb, ok := targets.Spending("Expenses:Food", mon("2024-02"))
	require.True(t, ok)
	assert.True(t, feb.Reference.Equal(dec("80")))
}

func TestSelectDisplayTarget(t *testing.T) {
	funded := Target{Amount: dec("100"), Reference: dec("100"), Kind: GoalMonthlyDerived}
	unfunded := Target{Amount: dec("100"), Reference: dec("20"), Kind: GoalMonthly}
	absolute := Target{Amount: dec("1200"), Reference: dec("400"), Kind: GoalTotal}
	spending := Target{Amount: dec("70"), Reference: dec("70"), Kind: GoalSpending}

	t.Run("funded monthly defers to absolute", func(t *testing.T) {
		got, ok := selectDisplayTarget(absolute, funded, Target{}, true, true, false)
		require.True(t, ok)
		assert.Equal(t, GoalTotal, got.Kind)
	})

	t.Run("unfunded monthly wins", func(t *testing.T) {
		got, ok := selectDisplayTarget(absolute, unfunded, Target{}, true, true, false)
		require.True(t, ok)
		assert.Equal(t, GoalMonthly, got.Kind)
	})

	t.Run("absolute alone", func(t *testing.T) {
		got, ok := selectDisplayTarget(absolute, Target{}, Target{}, true, false, false)
		require.True(t, ok)
		assert.Equal(t, GoalTotal, got.Kind)
	})

	t.Run("spending fallback", func(t *testing.T) {
		got, ok := selectDisplayTarget(Target{}, Target{}, spending, false, false, true)
		require.True(t, ok)
		assert.Equal(t, GoalSpending, got.Kind)
	})

	t.Run("no goal", func(t *testing.T) {
		_, ok := selectDisplayTarget(Target{}, Target{}, Target{}, false, false, false)
		assert.False(t, ok)
	})
}

func TestComputeTargets_BucketWithoutTableRow(t *testing.T) {
	table, months := savingsTable(t)
	goals := []GoalDirective{{
		Start:  day("2024-01-01"),
		Bucket: "Savings:House",
		Amount: dec("5000"),
	}}

	targets := computeTargets(goals, table, months, 2)

	// A goal on a bucket with no budgeted amounts still produces targets
	abs, ok := targets.Absolute("Savings:House", mon("2024-01"))
	require.True(t, ok)
	assert.True(t, abs.Reference.IsZero())
	assert.Equal(t, 0.0, abs.Progress())
}
