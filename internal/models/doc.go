// Package models defines the core domain models for fintrack.
//
// # Source records
//
// Users record their financial activity as time-stamped source records:
//   - SalaryRecord, TaxSetting: income side of the monthly position
//   - Loan, LoanEMI: repayments
//   - SIP: recurring investments
//   - Expense, Member, MemberTransaction: spending and shared-expense ledger
//   - Income: informational side income
//
// # Investments
//
//   - Holding: running position per (user, bucket, symbol)
//   - Transaction: append-only ledger entry a Holding is derived from
//   - OneTimePurchase: purchases counted against a bucket's monthly allocation
//   - InvestmentAllocation: per-bucket share of the investable amount
//   - BorrowedFund: money borrowed to invest, linked to the transactions it paid for
//
// # Derived records
//
//   - MonthlySnapshot: the aggregated position for one month, frozen once closed
//
// Dates that carry only a calendar day (purchase dates, expense dates, effective
// dates) are time.Time values at UTC midnight. Audit timestamps are Unix seconds.
//
// Relationships use ID strings instead of pointers.
package models
