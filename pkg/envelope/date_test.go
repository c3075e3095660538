package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Month
		wantErr bool
	}{
		{
			name:  "valid month",
			input: "2024-03",
			want:  Month{Year: 2024, Mon: time.March},
		},
		{
			name:  "january",
			input: "2024-01",
			want:  Month{Year: 2024, Mon: time.January},
		},
		{
			name:    "full date rejected",
			input:   "2024-03-15",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "not-a-month",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonth_String(t *testing.T) {
	assert.Equal(t, "2024-03", mon("2024-03").String())
	assert.Equal(t, "2024-12", Month{Year: 2024, Mon: time.December}.String())
}

func TestMonth_Arithmetic(t *testing.T) {
	m := mon("2024-11")

	assert.Equal(t, mon("2024-12"), m.Next())
	assert.Equal(t, mon("2025-01"), m.AddMonths(2))
	assert.Equal(t, mon("2024-08"), m.AddMonths(-3))

	assert.True(t, mon("2024-11").Before(mon("2024-12")))
	assert.True(t, mon("2025-01").After(mon("2024-12")))
	assert.False(t, m.Before(m))
	assert.False(t, m.After(m))
}

func TestMonth_Days(t *testing.T) {
	assert.Equal(t, 31, mon("2024-01").Days())
	assert.Equal(t, 29, mon("2024-02").Days())
	assert.Equal(t, 28, mon("2023-02").Days())
	assert.Equal(t, 30, mon("2024-04").Days())
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(mon("2024-05"), mon("2024-05")))
	assert.Equal(t, 3, MonthsBetween(mon("2024-05"), mon("2024-08")))
	assert.Equal(t, 14, MonthsBetween(mon("2024-11"), mon("2026-01")))
	assert.Equal(t, -2, MonthsBetween(mon("2024-05"), mon("2024-03")))
}

func TestMonthRange(t *testing.T) {
	t.Run("across year boundary", func(t *testing.T) {
		months := MonthRange(mon("2024-11"), mon("2025-02"))
		require.Len(t, months, 4)
		assert.Equal(t, mon("2024-11"), months[0])
		assert.Equal(t, mon("2024-12"), months[1])
		assert.Equal(t, mon("2025-01"), months[2])
		assert.Equal(t, mon("2025-02"), months[3])
	})

	t.Run("single month", func(t *testing.T) {
		months := MonthRange(mon("2024-06"), mon("2024-06"))
		assert.Equal(t, []Month{mon("2024-06")}, months)
	})

	t.Run("end before start", func(t *testing.T) {
		assert.Empty(t, MonthRange(mon("2024-06"), mon("2024-05")))
	})
}

func TestMonth_JSON(t *testing.T) {
	data, err := json.Marshal(mon("2024-07"))
	require.NoError(t, err)
	assert.Equal(t, `"2024-07"`, string(data))

	var m Month
	require.NoError(t, json.Unmarshal([]byte(`"2024-07"`), &m))
	assert.Equal(t, mon("2024-07"), m)

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.True(t, m.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"07/2024"`), &m))
}

func TestDate_Month(t *testing.T) {
	assert.Equal(t, mon("2024-03"), day("2024-03-15").Month())
	assert.Equal(t, mon("2024-12"), day("2024-12-31").Month())
}
