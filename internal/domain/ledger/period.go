package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/propertyhub/backend/internal/domain/shared"
)

// Basis selects the accounting basis a report is computed under
type Basis string

const (
	BasisAccrual Basis = "accrual"
	BasisCash    Basis = "cash"
)

// IsValid checks if the basis is a valid Basis
func (b Basis) IsValid() bool {
	return b == BasisAccrual || b == BasisCash
}

// String returns the string representation
func (b Basis) String() string {
	return string(b)
}

// MonthKey identifies a reporting month in "2006-01" form
type MonthKey string

// MonthKeyFor returns the key of the month containing t
func MonthKeyFor(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// MonthKeyOf builds a key from a year and month number
func MonthKeyOf(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// Time returns the first instant of the month, or an error for malformed keys
func (k MonthKey) Time() (time.Time, error) {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return time.Time{}, shared.ErrInvalidPeriod
	}
	return t, nil
}

// IsValid checks if the key parses as a month
func (k MonthKey) IsValid() bool {
	_, err := k.Time()
	return err == nil
}

// String returns the string representation
func (k MonthKey) String() string {
	return string(k)
}

// Period is a closed reporting date range
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod creates a period, normalizing the bounds to whole days
func NewPeriod(start, end time.Time) (Period, error) {
	if end.Before(start) {
		return Period{}, shared.ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// YearPeriod returns the fiscal period covering one calendar year
func YearPeriod(year int) Period {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Months enumerates every month key the period touches, in order
func (p Period) Months() []MonthKey {
	var keys []MonthKey
	cursor := time.Date(p.Start.Year(), p.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(p.End.Year(), p.End.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(last) {
		keys = append(keys, MonthKeyFor(cursor))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return keys
}

// Month-token patterns recognized in legacy free-text descriptions.
var (
	monthNamePattern    = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[.,]?\s+(\d{4})\b`)
	numericSlashPattern = regexp.MustCompile(`\b(\d{1,2})/(\d{4})\b`)
	// The tail group keeps a full date ("2025-01-15") from being read as
	// the month "2025-01"
	isoMonthPattern = regexp.MustCompile(`\b(\d{4})-(\d{2})(?:[^-\d]|$)`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// ParseMonthToken extracts a month key from free text. Supports literal
// "January 2025" and "Jan 2025" forms plus numeric "01/2025" and "2025-01".
// Returns false when no token is present.
func ParseMonthToken(text string) (MonthKey, bool) {
	if m := monthNamePattern.FindStringSubmatch(text); m != nil {
		if month, ok := monthsByName[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			return MonthKeyOf(year, month), true
		}
	}
	if m := numericSlashPattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return MonthKeyOf(year, time.Month(month)), true
		}
	}
	if m := isoMonthPattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return MonthKeyOf(year, time.Month(month)), true
		}
	}
	return "", false
}

// MonthResolverOption is a functional option for configuring MonthResolver
type MonthResolverOption func(*MonthResolver)

// WithLegacyTextParsing enables or disables month inference from free-text
// descriptions. Structured metadata tags always win; text parsing is a
// legacy fallback for historical records that carry no tags.
func WithLegacyTextParsing(enabled bool) MonthResolverOption {
	return func(r *MonthResolver) {
		r.legacyText = enabled
	}
}

// MonthResolver decides which reporting month an entry belongs to.
//
// Resolution order, first match wins:
//  1. a basis-appropriate date tag on the entry metadata (recognition date
//     for accrual, settlement month or paid date for cash);
//  2. a month token parsed from the description (legacy mode);
//  3. the entry's own posting date.
//
// Advance payments override rule 1: they always bucket by their literal
// posting date, so cash received before it is due never appears in a future
// period it has not reached.
type MonthResolver struct {
	legacyText bool
}

// NewMonthResolver creates a resolver with legacy text parsing enabled
func NewMonthResolver(opts ...MonthResolverOption) *MonthResolver {
	r := &MonthResolver{legacyText: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps an entry to its reporting month under the given basis
func (r *MonthResolver) Resolve(entry *LedgerEntry, basis Basis) MonthKey {
	if entry.Source == SourceAdvancePayment {
		return MonthKeyFor(entry.EntryDate)
	}

	switch basis {
	case BasisAccrual:
		if entry.Metadata.RecognitionDate != nil {
			return MonthKeyFor(*entry.Metadata.RecognitionDate)
		}
	case BasisCash:
		if key := MonthKey(entry.Metadata.SettlementMonth); key != "" && key.IsValid() {
			return key
		}
		if entry.Metadata.PaidDate != nil {
			return MonthKeyFor(*entry.Metadata.PaidDate)
		}
	}

	if r.legacyText {
		if key, ok := ParseMonthToken(entry.Description); ok {
			return key
		}
	}

	return MonthKeyFor(entry.EntryDate)
}

// ResolveCashDate returns the authoritative cash-movement date for an entry:
// the paid date when tagged, else the settlement month's first day, else the
// posting date. Advance payments always use the posting date.
func (r *MonthResolver) ResolveCashDate(entry *LedgerEntry) time.Time {
	if entry.Source == SourceAdvancePayment {
		return entry.EntryDate
	}
	if entry.Metadata.PaidDate != nil {
		return *entry.Metadata.PaidDate
	}
	if key := MonthKey(entry.Metadata.SettlementMonth); key != "" {
		if t, err := key.Time(); err == nil {
			return t
		}
	}
	return entry.EntryDate
}
