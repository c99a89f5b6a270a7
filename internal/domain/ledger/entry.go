package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a ledger entry
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
	EntryStatusVoided EntryStatus = "VOIDED"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	return s == EntryStatusDraft || s == EntryStatusPosted || s == EntryStatusVoided
}

// String returns the string representation
func (s EntryStatus) String() string {
	return string(s)
}

// IsReportable returns true when the entry participates in reports
func (s EntryStatus) IsReportable() bool {
	return s == EntryStatusPosted
}

// EntrySource identifies the upstream business event that produced an entry.
// Values are the tags the posting processes write, kept verbatim.
type EntrySource string

const (
	SourceRentalAccrual         EntrySource = "rental_accrual"
	SourceRentalAccrualReversal EntrySource = "rental_accrual_reversal"
	SourceExpenseAccrual        EntrySource = "expense_accrual"
	SourcePayment               EntrySource = "payment"
	SourceExpensePayment        EntrySource = "expense_payment"
	SourceVendorPayment         EntrySource = "vendor_payment"
	SourceAdvancePayment        EntrySource = "advance_payment"
	SourceManual                EntrySource = "manual"
)

// IsValid checks if the source is a known EntrySource
func (s EntrySource) IsValid() bool {
	switch s {
	case SourceRentalAccrual, SourceRentalAccrualReversal, SourceExpenseAccrual,
		SourcePayment, SourceExpensePayment, SourceVendorPayment,
		SourceAdvancePayment, SourceManual:
		return true
	}
	return false
}

// String returns the string representation
func (s EntrySource) String() string {
	return string(s)
}

// IsAccrualSource returns true for sources in the earned/incurred set used
// by accrual-basis statements
func (s EntrySource) IsAccrualSource() bool {
	switch s {
	case SourceRentalAccrual, SourceRentalAccrualReversal, SourceExpenseAccrual, SourceManual:
		return true
	}
	return false
}

// IsCashSource returns true for sources in the cash-movement set used by
// cash-basis statements. Disjoint from the accrual set so the same movement
// is never counted on both bases.
func (s EntrySource) IsCashSource() bool {
	switch s {
	case SourcePayment, SourceExpensePayment, SourceVendorPayment, SourceAdvancePayment:
		return true
	}
	return false
}

// AccrualSources returns the earned/incurred source set
func AccrualSources() []EntrySource {
	return []EntrySource{SourceRentalAccrual, SourceRentalAccrualReversal, SourceExpenseAccrual, SourceManual}
}

// CashSources returns the cash-movement source set
func CashSources() []EntrySource {
	return []EntrySource{SourcePayment, SourceExpensePayment, SourceVendorPayment, SourceAdvancePayment}
}

// EntryMetadata is the sparse tag bag upstream processes attach to entries.
// All fields are optional; absent tags fall back to the resolution policy in
// MonthResolver. Persisted as a JSON column.
type EntryMetadata struct {
	// RecognitionDate is the date revenue/expense was earned or incurred,
	// authoritative for accrual-basis month assignment
	RecognitionDate *time.Time `json:"recognition_date,omitempty"`
	// SettlementMonth is a "2006-01" key naming the reporting month a cash
	// movement settles, authoritative for cash-basis month assignment
	SettlementMonth string `json:"settlement_month,omitempty"`
	// PaidDate is the date cash actually moved, preferred over the posting
	// date by the cash flow statement
	PaidDate *time.Time `json:"paid_date,omitempty"`
	// Forfeited marks a write-off with no associated cash movement
	Forfeited bool `json:"forfeited,omitempty"`
	// PaymentComponents carries upstream hints about what a payment covers,
	// e.g. {"rent": "900.00", "admin_fee": "50.00"}
	PaymentComponents map[string]string `json:"payment_components,omitempty"`
}

// Value implements driver.Valuer for JSON persistence
func (m EntryMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSON persistence
func (m *EntryMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = EntryMetadata{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported metadata column type %T", value)
}

// LineItem is one debit or credit leg of a ledger entry, carrying a snapshot
// of the account at posting time
type LineItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	EntryID     uuid.UUID       `json:"entry_id" gorm:"type:uuid;not null;index"`
	AccountCode string          `json:"account_code" gorm:"type:varchar(20);not null;index"`
	AccountName string          `json:"account_name" gorm:"type:varchar(255);not null"`
	AccountType AccountType     `json:"account_type" gorm:"type:varchar(20);not null"`
	Debit       decimal.Decimal `json:"debit" gorm:"type:decimal(18,4);not null"`
	Credit      decimal.Decimal `json:"credit" gorm:"type:decimal(18,4);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Position    int             `json:"position" gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "ledger_lines"
}

// Amount returns the line's net movement on its normal-balance side:
// debit − credit for debit-normal accounts, credit − debit otherwise.
func (l *LineItem) Amount() decimal.Decimal {
	if l.AccountType.IsDebitNormal() {
		return l.Debit.Sub(l.Credit)
	}
	return l.Credit.Sub(l.Debit)
}

// LedgerEntry is an immutable, already-posted double-entry record. The
// engine never creates or mutates entries; it only folds them into reports.
type LedgerEntry struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	EntryDate   time.Time     `json:"entry_date" gorm:"not null;index"`
	Status      EntryStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	Source      EntrySource   `json:"source" gorm:"type:varchar(40);not null;index"`
	ResidenceID *uuid.UUID    `json:"residence_id,omitempty" gorm:"type:uuid;index"`
	Description string        `json:"description" gorm:"type:text"`
	Metadata    EntryMetadata `json:"metadata" gorm:"type:jsonb"`
	Lines       []LineItem    `json:"lines" gorm:"foreignKey:EntryID;references:ID"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// TotalDebits sums the debit side of all lines
func (e *LedgerEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Debit)
	}
	return total
}

// TotalCredits sums the credit side of all lines
func (e *LedgerEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for i := range e.Lines {
		total = total.Add(e.Lines[i].Credit)
	}
	return total
}

// IsBalanced returns true when debits equal credits within the given
// tolerance. Unbalanced entries are not rejected; the trial balance flags
// them as data-quality findings.
func (e *LedgerEntry) IsBalanced(tolerance decimal.Decimal) bool {
	return e.TotalDebits().Sub(e.TotalCredits()).Abs().LessThanOrEqual(tolerance)
}

// IsEmpty returns true when the entry carries no line items. Such records
// are malformed and skipped by every generator.
func (e *LedgerEntry) IsEmpty() bool {
	return len(e.Lines) == 0
}

// IsForfeiture returns true when the entry writes off a previously accrued
// amount with no cash movement
func (e *LedgerEntry) IsForfeiture() bool {
	return e.Metadata.Forfeited
}
