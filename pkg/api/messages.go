package api

// Empty is the request or response of procedures without a payload.
type Empty struct{}

// IDRequest addresses one record by ID.
type IDRequest struct {
	ID string `json:"id"`
}

// MonthRequest selects a calendar month. Empty means the current month.
type MonthRequest struct {
	Month string `json:"month,omitempty"`
}

// LedgerService

type IncomeRequest struct {
	Income Income `json:"income"`
}

type IncomeResponse struct {
	Income Income `json:"income"`
}

type ListIncomesResponse struct {
	Incomes []Income `json:"incomes"`
}

type SetSalaryRequest struct {
	Amount        float64 `json:"amount"`
	EffectiveFrom string  `json:"effective_from"`
}

type SalaryResponse struct {
	Salary SalaryRecord `json:"salary"`
}

type SalaryHistoryResponse struct {
	Salaries []SalaryRecord `json:"salaries"`
}

type TaxRequest struct {
	Tax TaxSetting `json:"tax"`
}

type TaxResponse struct {
	Tax *TaxSetting `json:"tax"`
}

type LoanRequest struct {
	Loan Loan `json:"loan"`
}

type LoanResponse struct {
	Loan     Loan      `json:"loan"`
	Schedule []LoanEMI `json:"schedule,omitempty"`
}

type PayEMIRequest struct {
	LoanID      string `json:"loan_id"`
	Installment int    `json:"installment"`
}

type ListLoansResponse struct {
	Loans []Loan `json:"loans"`
}

type LoanScheduleResponse struct {
	Schedule []LoanEMI `json:"schedule"`
}

type SIPRequest struct {
	SIP SIP `json:"sip"`
}

type SIPResponse struct {
	SIP SIP `json:"sip"`
}

type StopSIPRequest struct {
	ID      string `json:"id"`
	EndDate string `json:"end_date"`
}

type ListSIPsResponse struct {
	SIPs []SIP `json:"sips"`
}

type ExpenseRequest struct {
	Expense Expense `json:"expense"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type AddMemberRequest struct {
	Name string `json:"name"`
}

type MemberResponse struct {
	Member Member `json:"member"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type MemberStatementResponse struct {
	Entries []MemberTransaction `json:"entries"`
	Balance MemberBalance       `json:"balance"`
}

type BorrowedFundRequest struct {
	Fund BorrowedFund `json:"fund"`
}

type BorrowedFundResponse struct {
	Fund BorrowedFund `json:"fund"`
}

type ListBorrowedFundsResponse struct {
	Funds []BorrowedFund `json:"funds"`
}

// PortfolioService

type TransactionRequest struct {
	Transaction Transaction `json:"transaction"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// HoldingResponse carries the holding after a change; nil when it was emptied.
type HoldingResponse struct {
	Holding *Holding `json:"holding"`
}

type EditTransactionRequest struct {
	ID           string   `json:"id"`
	Qty          float64  `json:"qty"`
	Price        float64  `json:"price"`
	USDINRRate   *float64 `json:"usd_inr_rate,omitempty"`
	PurchaseDate string   `json:"purchase_date"`
}

type SIPExecutionRequest struct {
	SIPID      string   `json:"sip_id"`
	Qty        float64  `json:"qty"`
	Price      float64  `json:"price"`
	USDINRRate *float64 `json:"usd_inr_rate,omitempty"`
	Date       string   `json:"date"`
}

type SetManualPriceRequest struct {
	HoldingID string  `json:"holding_id"`
	Price     float64 `json:"price"`
}

type ListHoldingsResponse struct {
	Holdings   []Holding `json:"holdings"`
	TotalValue float64   `json:"total_value"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type AvailabilityRequest struct {
	Bucket string `json:"bucket"`
}

type AvailabilityResponse struct {
	Headroom Headroom `json:"headroom"`
}

type AllocationsRequest struct {
	Allocations []Allocation `json:"allocations"`
}

type AllocationsResponse struct {
	Allocations []Allocation `json:"allocations"`
}

type FXRateResponse struct {
	USDINR float64 `json:"usd_inr"`
}

// SnapshotService

type SnapshotResponse struct {
	Snapshot Snapshot `json:"snapshot"`
}

type ListSnapshotsResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
}

type CloseMonthResponse struct {
	Snapshot Snapshot `json:"snapshot"`
	Outcome  string   `json:"outcome"`
}

type PreviewResponse struct {
	Month   string  `json:"month"`
	Figures Figures `json:"figures"`
}

// CloseMonthJobResponse is returned by the external close-month trigger.
type CloseMonthJobResponse struct {
	Month   string `json:"month"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}
