package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthKey(t *testing.T) {
	t.Run("MonthKeyFor formats the containing month", func(t *testing.T) {
		assert.Equal(t, MonthKey("2025-08"), MonthKeyFor(date(2025, time.August, 15)))
	})

	t.Run("Time returns the first instant of the month", func(t *testing.T) {
		tm, err := MonthKey("2025-03").Time()
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.March, 1), tm)
	})

	t.Run("malformed key is invalid", func(t *testing.T) {
		assert.False(t, MonthKey("March 2025").IsValid())
		assert.True(t, MonthKey("2025-12").IsValid())
	})
}

func TestPeriod(t *testing.T) {
	t.Run("YearPeriod spans the calendar year", func(t *testing.T) {
		p := YearPeriod(2025)
		assert.True(t, p.Contains(date(2025, time.January, 1)))
		assert.True(t, p.Contains(date(2025, time.December, 31)))
		assert.False(t, p.Contains(date(2026, time.January, 1)))
	})

	t.Run("Months enumerates every month touched", func(t *testing.T) {
		p, err := NewPeriod(date(2025, time.November, 15), date(2026, time.February, 3))
		require.NoError(t, err)
		assert.Equal(t, []MonthKey{"2025-11", "2025-12", "2026-01", "2026-02"}, p.Months())
	})

	t.Run("inverted bounds are rejected", func(t *testing.T) {
		_, err := NewPeriod(date(2025, time.May, 1), date(2025, time.April, 1))
		assert.Error(t, err)
	})
}

func TestParseMonthToken(t *testing.T) {
	cases := []struct {
		text string
		want MonthKey
	}{
		{"Rent for January 2025", "2025-01"},
		{"rent for january 2025", "2025-01"},
		{"Payment Aug 2025 unit 4B", "2025-08"},
		{"Sept. 2025 admin fee", "2025-09"},
		{"Utilities 03/2025", "2025-03"},
		{"Settlement 2025-11 water bill", "2025-11"},
		{"Settlement key 2025-11", "2025-11"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseMonthToken(tc.text)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("returns false when no token present", func(t *testing.T) {
		_, ok := ParseMonthToken("monthly rent, unit 4B")
		assert.False(t, ok)
	})

	t.Run("rejects impossible numeric months", func(t *testing.T) {
		_, ok := ParseMonthToken("ref 13/2025")
		assert.False(t, ok)
	})

	t.Run("a full date is not read as a month token", func(t *testing.T) {
		_, ok := ParseMonthToken("Paid 2025-01-15 by transfer")
		assert.False(t, ok)
	})
}

func TestMonthResolver(t *testing.T) {
	resolver := NewMonthResolver()

	t.Run("recognition date wins over description text on accrual basis", func(t *testing.T) {
		rec := date(2025, time.July, 31)
		e := LedgerEntry{
			EntryDate:   date(2025, time.August, 2),
			Source:      SourceRentalAccrual,
			Description: "Rent for September 2025",
			Metadata:    EntryMetadata{RecognitionDate: &rec},
		}
		assert.Equal(t, MonthKey("2025-07"), resolver.Resolve(&e, BasisAccrual))
	})

	t.Run("settlement month wins on cash basis", func(t *testing.T) {
		e := LedgerEntry{
			EntryDate: date(2025, time.August, 2),
			Source:    SourcePayment,
			Metadata:  EntryMetadata{SettlementMonth: "2025-09"},
		}
		assert.Equal(t, MonthKey("2025-09"), resolver.Resolve(&e, BasisCash))
	})

	t.Run("paid date used when no settlement month", func(t *testing.T) {
		paid := date(2025, time.October, 5)
		e := LedgerEntry{
			EntryDate: date(2025, time.August, 2),
			Source:    SourcePayment,
			Metadata:  EntryMetadata{PaidDate: &paid},
		}
		assert.Equal(t, MonthKey("2025-10"), resolver.Resolve(&e, BasisCash))
	})

	t.Run("description token used when metadata absent", func(t *testing.T) {
		e := LedgerEntry{
			EntryDate:   date(2025, time.August, 2),
			Source:      SourceRentalAccrual,
			Description: "Rent for July 2025",
		}
		assert.Equal(t, MonthKey("2025-07"), resolver.Resolve(&e, BasisAccrual))
	})

	t.Run("falls back to posting date", func(t *testing.T) {
		e := LedgerEntry{
			EntryDate:   date(2025, time.August, 2),
			Source:      SourceRentalAccrual,
			Description: "monthly rent",
		}
		assert.Equal(t, MonthKey("2025-08"), resolver.Resolve(&e, BasisAccrual))
	})

	t.Run("advance payments always use the posting date", func(t *testing.T) {
		e := LedgerEntry{
			EntryDate:   date(2025, time.August, 20),
			Source:      SourceAdvancePayment,
			Description: "Advance rent for October 2025",
			Metadata:    EntryMetadata{SettlementMonth: "2025-10"},
		}
		assert.Equal(t, MonthKey("2025-08"), resolver.Resolve(&e, BasisCash))
		assert.Equal(t, MonthKey("2025-08"), resolver.Resolve(&e, BasisAccrual))
	})

	t.Run("legacy text parsing can be disabled", func(t *testing.T) {
		strict := NewMonthResolver(WithLegacyTextParsing(false))
		e := LedgerEntry{
			EntryDate:   date(2025, time.August, 2),
			Source:      SourceRentalAccrual,
			Description: "Rent for July 2025",
		}
		assert.Equal(t, MonthKey("2025-08"), strict.Resolve(&e, BasisAccrual))
	})
}

func TestResolveCashDate(t *testing.T) {
	resolver := NewMonthResolver()

	t.Run("paid date preferred over posting date", func(t *testing.T) {
		paid := date(2025, time.September, 3)
		e := LedgerEntry{EntryDate: date(2025, time.August, 30), Source: SourcePayment, Metadata: EntryMetadata{PaidDate: &paid}}
		assert.Equal(t, paid, resolver.ResolveCashDate(&e))
	})

	t.Run("settlement month used when no paid date", func(t *testing.T) {
		e := LedgerEntry{EntryDate: date(2025, time.August, 30), Source: SourcePayment, Metadata: EntryMetadata{SettlementMonth: "2025-09"}}
		assert.Equal(t, date(2025, time.September, 1), resolver.ResolveCashDate(&e))
	})

	t.Run("advance payment ignores settlement tags", func(t *testing.T) {
		e := LedgerEntry{EntryDate: date(2025, time.August, 30), Source: SourceAdvancePayment, Metadata: EntryMetadata{SettlementMonth: "2025-10"}}
		assert.Equal(t, date(2025, time.August, 30), resolver.ResolveCashDate(&e))
	})
}
