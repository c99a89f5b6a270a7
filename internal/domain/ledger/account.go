package ledger

import (
	"strings"
	"time"
)

// AccountType classifies an account within the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation
func (t AccountType) String() string {
	return string(t)
}

// IsDebitNormal returns true for accounts that increase on the debit side
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// AccountCategory distinguishes current from non-current balance sheet positions
type AccountCategory string

const (
	CategoryCurrent    AccountCategory = "CURRENT"
	CategoryNonCurrent AccountCategory = "NON_CURRENT"
	CategoryNone       AccountCategory = ""
)

// currentAssetKeywords mark an asset account as current when its name
// contains any of them. Mirrors the historical chart's naming conventions.
var currentAssetKeywords = []string{"cash", "bank", "receivable", "inventory", "prepaid"}

// currentLiabilityKeywords mark a liability account as current.
var currentLiabilityKeywords = []string{"payable", "accrued", "short-term", "short term"}

// Account is a chart-of-accounts entry. Codes are hierarchical: codes in a
// round code's numeric series (1201, 1202 under 1200) are aggregation
// candidates for that account even without an explicit parent link.
type Account struct {
	Code       string          `json:"code" gorm:"type:varchar(20);primary_key"`
	Name       string          `json:"name" gorm:"type:varchar(255);not null"`
	Type       AccountType     `json:"type" gorm:"type:varchar(20);not null;index"`
	Category   AccountCategory `json:"category" gorm:"type:varchar(20)"`
	ParentCode *string         `json:"parent_code,omitempty" gorm:"type:varchar(20);index"`
	IsActive   bool            `json:"is_active" gorm:"not null;index"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "chart_of_accounts"
}

// EffectiveCategory returns the explicit category when set, otherwise infers
// current/non-current from the account name keywords. Income, expense and
// equity accounts carry no category.
func (a *Account) EffectiveCategory() AccountCategory {
	if a.Category != CategoryNone {
		return a.Category
	}
	name := strings.ToLower(a.Name)
	switch a.Type {
	case AccountTypeAsset:
		for _, kw := range currentAssetKeywords {
			if strings.Contains(name, kw) {
				return CategoryCurrent
			}
		}
		return CategoryNonCurrent
	case AccountTypeLiability:
		for _, kw := range currentLiabilityKeywords {
			if strings.Contains(name, kw) {
				return CategoryCurrent
			}
		}
		return CategoryNonCurrent
	}
	return CategoryNone
}

// IsCurrent returns true when the account sits in the current section of the
// balance sheet
func (a *Account) IsCurrent() bool {
	return a.EffectiveCategory() == CategoryCurrent
}

// HierarchyOption is a functional option for configuring AccountHierarchy
type HierarchyOption func(*AccountHierarchy)

// WithCodePrefixMatching enables or disables numeric-series sibling matching.
// Explicit parent links are always honored; prefix matching exists for
// historical charts that never recorded parent references.
func WithCodePrefixMatching(enabled bool) HierarchyOption {
	return func(h *AccountHierarchy) {
		h.prefixMatching = enabled
	}
}

// AccountHierarchy resolves parent/child account families from explicit
// parent links and, when enabled, numeric-series code prefixes. A child
// reachable both ways is counted once.
type AccountHierarchy struct {
	accounts       []Account
	byCode         map[string]*Account
	prefixMatching bool
}

// NewAccountHierarchy builds a hierarchy over the given chart of accounts
func NewAccountHierarchy(accounts []Account, opts ...HierarchyOption) *AccountHierarchy {
	h := &AccountHierarchy{
		accounts:       accounts,
		byCode:         make(map[string]*Account, len(accounts)),
		prefixMatching: true,
	}
	for i := range accounts {
		h.byCode[accounts[i].Code] = &accounts[i]
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Find returns the account with the given code, or nil
func (h *AccountHierarchy) Find(code string) *Account {
	return h.byCode[code]
}

// seriesPrefix returns the numeric-series prefix of a designated parent
// code: the code with its trailing zero run stripped. "1200" heads the 12xx
// family. Codes that do not end in zero, or whose stripped prefix is too
// short to be meaningful, head no series.
func seriesPrefix(code string) string {
	trimmed := strings.TrimRight(code, "0")
	if trimmed == code || len(trimmed) < 2 {
		return ""
	}
	return trimmed
}

// matchesSeries reports whether child belongs to parent's numeric series
func matchesSeries(parentCode, childCode string) bool {
	prefix := seriesPrefix(parentCode)
	if prefix == "" {
		return false
	}
	return childCode != parentCode &&
		len(childCode) >= len(parentCode) &&
		strings.HasPrefix(childCode, prefix)
}

// Children returns the accounts aggregated under the given parent code,
// deduplicated across explicit links and code-prefix matches. The parent
// itself is never included.
func (h *AccountHierarchy) Children(parentCode string) []Account {
	seen := make(map[string]bool)
	var children []Account
	for _, a := range h.accounts {
		if a.Code == parentCode {
			continue
		}
		matched := a.ParentCode != nil && *a.ParentCode == parentCode
		if !matched && h.prefixMatching && matchesSeries(parentCode, a.Code) {
			matched = true
		}
		if matched && !seen[a.Code] {
			seen[a.Code] = true
			children = append(children, a)
		}
	}
	return children
}

// IsChild reports whether the account with the given code belongs to any
// other account's family
func (h *AccountHierarchy) IsChild(code string) bool {
	a := h.byCode[code]
	if a == nil {
		return false
	}
	if a.ParentCode != nil {
		if _, ok := h.byCode[*a.ParentCode]; ok {
			return true
		}
	}
	if h.prefixMatching {
		for _, candidate := range h.accounts {
			if matchesSeries(candidate.Code, code) {
				return true
			}
		}
	}
	return false
}

// TopLevel returns the accounts of the given type that are not part of any
// other account's family, i.e. the lines a statement reports directly.
func (h *AccountHierarchy) TopLevel(accountType AccountType) []Account {
	var top []Account
	for _, a := range h.accounts {
		if a.Type != accountType {
			continue
		}
		if !h.IsChild(a.Code) {
			top = append(top, a)
		}
	}
	return top
}
