package ledger

import (
	"strconv"
	"strings"
)

// Activity is a cash flow statement activity class
type Activity string

const (
	ActivityOperating Activity = "OPERATING"
	ActivityInvesting Activity = "INVESTING"
	ActivityFinancing Activity = "FINANCING"
)

// IsValid checks if the activity is a valid Activity
func (a Activity) IsValid() bool {
	return a == ActivityOperating || a == ActivityInvesting || a == ActivityFinancing
}

// String returns the string representation
func (a Activity) String() string {
	return string(a)
}

// CashCategory is the human-facing presentation bucket for a cash movement,
// derived from description keywords. Used only in breakdown views; it never
// drives the activity classification.
type CashCategory string

const (
	CategoryRent        CashCategory = "rent"
	CategoryAdminFee    CashCategory = "admin_fee"
	CategoryDeposit     CashCategory = "deposit"
	CategoryUtilities   CashCategory = "utilities"
	CategoryMaintenance CashCategory = "maintenance"
	CategorySecurity    CashCategory = "security"
	CategoryOther       CashCategory = "other"
)

// ClassifierBands holds the numeric code bands the classifier matches
// against. Defaults mirror the historical chart of accounts.
type ClassifierBands struct {
	// CashMin..CashMax is the cash-and-equivalents asset band
	CashMin, CashMax int
	// LongTermMin..LongTermMax is the long-term asset / investment band
	LongTermMin, LongTermMax int
	// LiabilityMin..LiabilityMax is the short-term liability band
	LiabilityMin, LiabilityMax int
	// DepositLiabilityCode is the tenant-deposit liability account, an
	// explicit financing override inside the liability band
	DepositLiabilityCode string
}

// DefaultClassifierBands returns the bands of the historical chart:
// 1000-1099 cash, 1500-1999 long-term assets, 2000-2999 liabilities,
// 2300 tenant deposits.
func DefaultClassifierBands() ClassifierBands {
	return ClassifierBands{
		CashMin:              1000,
		CashMax:              1099,
		LongTermMin:          1500,
		LongTermMax:          1999,
		LiabilityMin:         2000,
		LiabilityMax:         2999,
		DepositLiabilityCode: "2300",
	}
}

// ActivityClassifier maps account codes to cash flow activities and entry
// descriptions to presentation categories
type ActivityClassifier struct {
	bands ClassifierBands
}

// NewActivityClassifier creates a classifier over the given bands
func NewActivityClassifier(bands ClassifierBands) *ActivityClassifier {
	return &ActivityClassifier{bands: bands}
}

// NewDefaultActivityClassifier creates a classifier over the default bands
func NewDefaultActivityClassifier() *ActivityClassifier {
	return NewActivityClassifier(DefaultClassifierBands())
}

// codeNumber extracts the leading numeric value of an account code.
// Sub-account suffixes ("1010-02") are ignored.
func codeNumber(code string) (int, bool) {
	digits := code
	if i := strings.IndexFunc(code, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = code[:i]
	}
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Classify maps an account code to its cash flow activity. The deposit
// liability override wins over its surrounding band; unknown codes default
// to operating.
func (c *ActivityClassifier) Classify(accountCode string) Activity {
	if accountCode == c.bands.DepositLiabilityCode {
		return ActivityFinancing
	}
	n, ok := codeNumber(accountCode)
	if !ok {
		return ActivityOperating
	}
	switch {
	case n >= c.bands.CashMin && n <= c.bands.CashMax:
		return ActivityOperating
	case n >= c.bands.LongTermMin && n <= c.bands.LongTermMax:
		return ActivityInvesting
	case n >= c.bands.LiabilityMin && n <= c.bands.LiabilityMax:
		return ActivityFinancing
	default:
		return ActivityOperating
	}
}

// IsCashAccount reports whether a code falls in the cash-and-equivalents
// band. Only lines on these accounts participate in cash-delta sums.
func (c *ActivityClassifier) IsCashAccount(accountCode string) bool {
	n, ok := codeNumber(accountCode)
	return ok && n >= c.bands.CashMin && n <= c.bands.CashMax
}

// categoryKeywords in match order; first hit wins
var categoryKeywords = []struct {
	category CashCategory
	words    []string
}{
	{CategoryRent, []string{"rent", "lease"}},
	{CategoryAdminFee, []string{"admin", "administrative", "processing fee"}},
	{CategoryDeposit, []string{"deposit"}},
	{CategoryUtilities, []string{"utilit", "water", "electric", "gas", "internet"}},
	{CategoryMaintenance, []string{"mainten", "repair", "plumb", "cleaning"}},
	{CategorySecurity, []string{"security", "guard", "cctv"}},
}

// Categorize keyword-sniffs a description into a presentation bucket
func (c *ActivityClassifier) Categorize(description string) CashCategory {
	lower := strings.ToLower(description)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return CategoryOther
}
