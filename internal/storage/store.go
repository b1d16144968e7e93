// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

// Repo defines every read and write the ledger performs.
//
// Get* methods return an apperr.NotFoundError when the row is missing or
// belongs to another user. Find* methods return nil, nil instead.
// All methods are scoped by userID where the row has an owner.
type Repo interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListActiveUserIDs(ctx context.Context) ([]string, error)

	// Snapshots
	FindSnapshot(ctx context.Context, userID string, year, month int) (*models.MonthlySnapshot, error)
	// UpsertSnapshot inserts or updates the row for (UserID, Year, Month).
	// The ID and CreatedAt of an existing row are kept.
	UpsertSnapshot(ctx context.Context, snap *models.MonthlySnapshot) error
	ListSnapshots(ctx context.Context, userID string) ([]*models.MonthlySnapshot, error)

	// Income
	CreateIncome(ctx context.Context, income *models.Income) error
	GetIncome(ctx context.Context, userID, id string) (*models.Income, error)
	UpdateIncome(ctx context.Context, income *models.Income) error
	DeleteIncome(ctx context.Context, userID, id string) error
	ListIncomes(ctx context.Context, userID string, from, to time.Time) ([]*models.Income, error)

	// Salary and tax
	ListSalaryRecords(ctx context.Context, userID string) ([]models.SalaryRecord, error)
	FindCurrentSalary(ctx context.Context, userID string) (*models.SalaryRecord, error)
	CreateSalaryRecord(ctx context.Context, rec *models.SalaryRecord) error
	SetSalaryEffectiveTo(ctx context.Context, userID, id string, to time.Time) error
	FindTaxSetting(ctx context.Context, userID string) (*models.TaxSetting, error)
	SaveTaxSetting(ctx context.Context, setting *models.TaxSetting) error

	// Loans
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, userID, id string) (*models.Loan, error)
	ListLoans(ctx context.Context, userID string) ([]models.Loan, error)
	DeleteLoan(ctx context.Context, userID, id string) error
	UpdateLoanOutstanding(ctx context.Context, userID, id string, outstanding float64) error
	CreateLoanEMI(ctx context.Context, emi *models.LoanEMI) error
	ListLoanEMIs(ctx context.Context, loanID string) ([]*models.LoanEMI, error)
	MarkEMIPaid(ctx context.Context, loanID string, installment int, paidAt int64) error

	// SIPs
	CreateSIP(ctx context.Context, sip *models.SIP) error
	GetSIP(ctx context.Context, userID, id string) (*models.SIP, error)
	UpdateSIP(ctx context.Context, sip *models.SIP) error
	ListSIPs(ctx context.Context, userID string) ([]models.SIP, error)

	// Expenses
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
	ListExpenses(ctx context.Context, userID string, from, to time.Time) ([]models.Expense, error)

	// Members
	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, userID, id string) (*models.Member, error)
	ListMembers(ctx context.Context, userID string) ([]*models.Member, error)
	AdjustMemberBalance(ctx context.Context, userID, id string, delta float64) error
	CreateMemberTransaction(ctx context.Context, mt *models.MemberTransaction) error
	FindMemberTransactionByExpense(ctx context.Context, expenseID string) (*models.MemberTransaction, error)
	DeleteMemberTransaction(ctx context.Context, id string) error
	ListMemberTransactions(ctx context.Context, userID, memberID string) ([]models.MemberTransaction, error)

	// Holdings
	FindHolding(ctx context.Context, userID string, bucket models.InvestmentBucket, symbol string) (*models.Holding, error)
	GetHolding(ctx context.Context, userID, id string) (*models.Holding, error)
	CreateHolding(ctx context.Context, h *models.Holding) error
	UpdateHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, userID, id string) error
	ListHoldings(ctx context.Context, userID string) ([]*models.Holding, error)
	// UpdateHoldingPrice writes only CurrentPrice and PriceUpdatedAt.
	UpdateHoldingPrice(ctx context.Context, id string, price float64, at int64) error

	// Transactions
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error)
	GetTransactionsByIDs(ctx context.Context, userID string, ids []string) (map[string]*models.Transaction, error)

	// Allocations and one-time purchases
	ListAllocations(ctx context.Context, userID string) ([]models.InvestmentAllocation, error)
	FindAllocation(ctx context.Context, userID string, bucket models.InvestmentBucket) (*models.InvestmentAllocation, error)
	DeleteAllocations(ctx context.Context, userID string) error
	CreateAllocation(ctx context.Context, a *models.InvestmentAllocation) error
	CreateOneTimePurchase(ctx context.Context, p *models.OneTimePurchase) error
	SumOneTimePurchases(ctx context.Context, userID string, bucket models.InvestmentBucket, from, to time.Time) (float64, error)
	UpdateOneTimePurchaseByTransaction(ctx context.Context, transactionID string, amount float64, date time.Time) error
	DeleteOneTimePurchaseByTransaction(ctx context.Context, transactionID string) error

	// Borrowed funds
	CreateBorrowedFund(ctx context.Context, b *models.BorrowedFund) error
	GetBorrowedFund(ctx context.Context, userID, id string) (*models.BorrowedFund, error)
	UpdateBorrowedFund(ctx context.Context, b *models.BorrowedFund) error
	DeleteBorrowedFund(ctx context.Context, userID, id string) error
	ListBorrowedFunds(ctx context.Context, userID string) ([]*models.BorrowedFund, error)
	ListBorrowedFundsByTransaction(ctx context.Context, transactionID string) ([]*models.BorrowedFund, error)
}

// Store is a Repo that can run a group of operations atomically.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger.
type Store interface {
	Repo

	// InTx runs fn against a transactional Repo. If fn returns an error every
	// write it made is rolled back; otherwise they are committed together.
	InTx(ctx context.Context, fn func(Repo) error) error

	// Close releases any resources held by the store.
	Close() error
}
