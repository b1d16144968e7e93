package models

import "strings"

// InvestmentBucket partitions holdings, SIPs and allocations.
type InvestmentBucket string

const (
	BucketMutualFund    InvestmentBucket = "MUTUAL_FUND"
	BucketIndianStock   InvestmentBucket = "IND_STOCK"
	BucketUSStock       InvestmentBucket = "US_STOCK"
	BucketCrypto        InvestmentBucket = "CRYPTO"
	BucketEmergencyFund InvestmentBucket = "EMERGENCY_FUND"
)

// Buckets lists every bucket in display order.
var Buckets = []InvestmentBucket{
	BucketMutualFund, BucketIndianStock, BucketUSStock, BucketCrypto, BucketEmergencyFund,
}

func (b InvestmentBucket) Valid() bool {
	switch b {
	case BucketMutualFund, BucketIndianStock, BucketUSStock, BucketCrypto, BucketEmergencyFund:
		return true
	}
	return false
}

// DefaultCurrency is the currency instruments in the bucket are quoted in.
func (b InvestmentBucket) DefaultCurrency() string {
	switch b {
	case BucketUSStock, BucketCrypto:
		return CurrencyUSD
	default:
		return CurrencyINR
	}
}

const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
)

// IsForeign reports whether amounts in currency need an FX rate to reach INR.
func IsForeign(currency string) bool {
	return currency != "" && !strings.EqualFold(currency, CurrencyINR)
}

// SIPFrequency is the cadence of a SIP.
type SIPFrequency string

const (
	FrequencyMonthly SIPFrequency = "MONTHLY"
	FrequencyYearly  SIPFrequency = "YEARLY"
	FrequencyCustom  SIPFrequency = "CUSTOM"
)

func (f SIPFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// TransactionType records how a Transaction entered the ledger.
type TransactionType string

const (
	TxOneTimePurchase TransactionType = "ONE_TIME_PURCHASE"
	TxSIPExecution    TransactionType = "SIP_EXECUTION"
	TxManualEntry     TransactionType = "MANUAL_ENTRY"
	TxManualEdit      TransactionType = "MANUAL_EDIT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxOneTimePurchase, TxSIPExecution, TxManualEntry, TxManualEdit:
		return true
	}
	return false
}

// TaxMode selects how the monthly tax amount is derived.
type TaxMode string

const (
	TaxPercentage TaxMode = "PERCENTAGE"
	TaxFixed      TaxMode = "FIXED"
	TaxHybrid     TaxMode = "HYBRID"
)

func (m TaxMode) Valid() bool {
	switch m {
	case TaxPercentage, TaxFixed, TaxHybrid:
		return true
	}
	return false
}

// ExpenseType separates planned spending from surprises.
type ExpenseType string

const (
	ExpenseExpected   ExpenseType = "EXPECTED"
	ExpenseUnexpected ExpenseType = "UNEXPECTED"
)

func (t ExpenseType) Valid() bool {
	return t == ExpenseExpected || t == ExpenseUnexpected
}

// ExpenseCategory classifies an expense as needed, avoidable, or a mix.
type ExpenseCategory string

const (
	CategoryNeeds        ExpenseCategory = "NEEDS"
	CategoryPartialNeeds ExpenseCategory = "PARTIAL_NEEDS"
	CategoryAvoid        ExpenseCategory = "AVOID"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryNeeds, CategoryPartialNeeds, CategoryAvoid:
		return true
	}
	return false
}

// AllocationType selects percentage-of-available or fixed-amount allocation.
type AllocationType string

const (
	AllocationPercentage AllocationType = "PERCENTAGE"
	AllocationAmount     AllocationType = "AMOUNT"
)

func (t AllocationType) Valid() bool {
	return t == AllocationPercentage || t == AllocationAmount
}

// MemberDirection says who paid on a shared expense.
type MemberDirection string

const (
	// PaidForMember: the user paid on the member's behalf, the member owes more.
	PaidForMember MemberDirection = "PAID_FOR_MEMBER"
	// PaidByMember: the member paid on the user's behalf, the member is owed.
	PaidByMember MemberDirection = "PAID_BY_MEMBER"
)

func (d MemberDirection) Valid() bool {
	return d == PaidForMember || d == PaidByMember
}

// NormalizeSymbol trims and upper-cases a ticker so lookups are case-insensitive.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
