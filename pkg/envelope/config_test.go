package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Accounts(t *testing.T) {
	cfg, ds := parseTestConfig(budgetConfig())

	assert.Empty(t, ds.items)
	assert.Equal(t, "USD", cfg.Currency)

	assert.True(t, cfg.IsBudgetAccount("Assets:Checking"))
	assert.False(t, cfg.IsBudgetAccount("Assets:Brokerage"))

	assert.True(t, cfg.IsIncomeAccount("Income:Salary"))
	// Root Income accounts count even without a configured pattern
	assert.True(t, cfg.IsIncomeAccount("Income:Dividends"))
	assert.False(t, cfg.IsIncomeAccount("Expenses:Food"))
}

func TestParseConfig_Mappings(t *testing.T) {
	cfg, _ := parseTestConfig(budgetConfig())

	assert.Equal(t, "Expenses:Food", cfg.Bucket("Expenses:Food:Groceries"))
	assert.Equal(t, "Expenses:Housing:Rent", cfg.Bucket("Expenses:Rent"))
	// Unmatched accounts map to themselves
	assert.Equal(t, "Expenses:Misc", cfg.Bucket("Expenses:Misc"))
}

func TestParseConfig_Allocations(t *testing.T) {
	directives := append(budgetConfig(),
		directive("2024-01-05", "allocate", "Expenses:Food", "400"),
		directive("2024-02-05", "allocate", "Expenses:Food", "450.50"),
	)
	cfg, ds := parseTestConfig(directives)

	assert.Empty(t, ds.items)
	require.Len(t, cfg.Allocations, 2)
	assert.Equal(t, mon("2024-01"), cfg.Allocations[0].Month)
	assert.True(t, cfg.Allocations[1].Amount.Equal(dec("450.50")))
	assert.Equal(t, day("2024-02-05").Time, cfg.MaxAllocationDate)
}

func TestParseConfig_MalformedDirectives(t *testing.T) {
	tests := []struct {
		name      string
		directive Directive
	}{
		{
			name:      "mapping missing bucket",
			directive: directive("2024-01-01", "mapping", "Expenses:.*"),
		},
		{
			name:      "mapping bad pattern",
			directive: directive("2024-01-01", "mapping", "[unclosed", "Bucket"),
		},
		{
			name:      "allocate bad amount",
			directive: directive("2024-01-05", "allocate", "Expenses:Food", "lots"),
		},
		{
			name:      "currency wrong length",
			directive: directive("2024-01-01", "currency", "DOLLARS"),
		},
		{
			name:      "budget account bad pattern",
			directive: directive("2024-01-01", "budget account", "(?P<"),
		},
		{
			name:      "target missing amount",
			directive: directive("2024-01-01", "target", "Expenses:Food"),
		},
		{
			name:      "spending unknown interval",
			directive: directive("2024-01-01", "spending", "Expenses:Food", "fortnightly", "50"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ds := parseTestConfig(append(budgetConfig(), tt.directive))

			// Malformed directives degrade to a warning, never a failure
			require.NotEmpty(t, ds.items)
			assert.Equal(t, SeverityWarning, ds.items[0].Severity)
			assert.Empty(t, cfg.Allocations)
			assert.Empty(t, cfg.Goals)
		})
	}
}

func TestParseConfig_InvalidCurrencyDefaults(t *testing.T) {
	cfg, ds := parseTestConfig([]Directive{
		directive("2024-01-01", "budget account", "Assets:Checking"),
		directive("2024-01-01", "currency", "EUROS"),
	})

	assert.Equal(t, DefaultCurrency, cfg.Currency)
	require.Len(t, ds.items, 1)
	assert.ErrorIs(t, ds.items[0].Err, ErrInvalidCurrency)
}

func TestParseConfig_NoBudgetAccountsWarns(t *testing.T) {
	_, ds := parseTestConfig([]Directive{
		directive("2024-01-01", "currency", "USD"),
	})

	require.Len(t, ds.items, 1)
	assert.ErrorIs(t, ds.items[0].Err, ErrNoBudgetAccounts)
}

func TestParseTargetDirective(t *testing.T) {
	t.Run("plain amount", func(t *testing.T) {
		goal, err := parseTargetDirective(day("2024-01-01"), []string{"Savings:Vacation", "1200"})
		require.NoError(t, err)
		assert.Equal(t, "Savings:Vacation", goal.Bucket)
		assert.True(t, goal.Amount.Equal(dec("1200")))
		assert.True(t, goal.Monthly.IsZero())
		assert.True(t, goal.By.Time.IsZero())
	})

	t.Run("amount by date", func(t *testing.T) {
		goal, err := parseTargetDirective(day("2024-01-01"), []string{"Savings:Vacation", "1200", "by", "2024-06-30"})
		require.NoError(t, err)
		assert.True(t, goal.Amount.Equal(dec("1200")))
		assert.Equal(t, "2024-06-30", goal.By.String())
	})

	t.Run("monthly amount", func(t *testing.T) {
		goal, err := parseTargetDirective(day("2024-01-01"), []string{"Expenses:Food", "monthly", "400"})
		require.NoError(t, err)
		assert.True(t, goal.Amount.IsZero())
		assert.True(t, goal.Monthly.Equal(dec("400")))
	})

	t.Run("by without date", func(t *testing.T) {
		_, err := parseTargetDirective(day("2024-01-01"), []string{"Savings", "1200", "by"})
		assert.Error(t, err)
	})
}

func TestParseSpendingDirective(t *testing.T) {
	goal, err := parseSpendingDirective(day("2024-01-01"), []string{"Expenses:Coffee", "weekly", "15"})
	require.NoError(t, err)

	assert.True(t, goal.Spending)
	assert.Equal(t, IntervalWeek, goal.Interval)
	assert.True(t, goal.Amount.Equal(dec("15")))
	assert.True(t, goal.By.Time.IsZero())

	goal, err = parseSpendingDirective(day("2024-01-01"), []string{"Expenses:Coffee", "weekly", "15", "by", "2024-06-30"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30", goal.By.String())

	_, err = parseSpendingDirective(day("2024-01-01"), []string{"Expenses:Coffee", "weekly", "15", "by", "soon"})
	assert.Error(t, err)
}
