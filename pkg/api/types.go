package api

// Dates are "YYYY-MM-DD" and months "YYYY-MM". Enum fields carry the
// upper-case names used throughout the ledger (e.g. "US_STOCK", "MONTHLY").

type Income struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Source      string  `json:"source"`
	Description string  `json:"description,omitempty"`
}

type SalaryRecord struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   string  `json:"effective_to,omitempty"`
}

type TaxSetting struct {
	Mode        string   `json:"mode"`
	Percentage  *float64 `json:"percentage,omitempty"`
	FixedAmount *float64 `json:"fixed_amount,omitempty"`
}

type Loan struct {
	ID                 string  `json:"id,omitempty"`
	Name               string  `json:"name"`
	PrincipalAmount    float64 `json:"principal_amount"`
	EMIAmount          float64 `json:"emi_amount"`
	Tenure             int     `json:"tenure"`
	StartDate          string  `json:"start_date"`
	CurrentOutstanding float64 `json:"current_outstanding"`
}

type LoanEMI struct {
	Installment int     `json:"installment"`
	DueDate     string  `json:"due_date"`
	Amount      float64 `json:"amount"`
	Paid        bool    `json:"paid"`
	PaidAt      int64   `json:"paid_at,omitempty"`
}

type SIP struct {
	ID        string  `json:"id,omitempty"`
	Bucket    string  `json:"bucket"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name,omitempty"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	CustomDay *int    `json:"custom_day,omitempty"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date,omitempty"`
	IsActive  bool    `json:"is_active"`
}

type Expense struct {
	ID              string   `json:"id,omitempty"`
	Date            string   `json:"date"`
	Amount          float64  `json:"amount"`
	Description     string   `json:"description,omitempty"`
	Type            string   `json:"type"`
	Category        string   `json:"category"`
	NeedsPortion    *float64 `json:"needs_portion,omitempty"`
	AvoidPortion    *float64 `json:"avoid_portion,omitempty"`
	MemberID        string   `json:"member_id,omitempty"`
	MemberDirection string   `json:"member_direction,omitempty"`
}

type Member struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type MemberTransaction struct {
	ID        string  `json:"id"`
	MemberID  string  `json:"member_id"`
	ExpenseID string  `json:"expense_id"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
}

type MemberBalance struct {
	MemberID   string  `json:"member_id"`
	PaidFor    float64 `json:"paid_for"`
	PaidBy     float64 `json:"paid_by"`
	NetBalance float64 `json:"net_balance"`
}

type BorrowedFund struct {
	ID              string   `json:"id,omitempty"`
	MemberID        string   `json:"member_id,omitempty"`
	LenderName      string   `json:"lender_name"`
	BorrowedAmount  float64  `json:"borrowed_amount"`
	BorrowDate      string   `json:"borrow_date"`
	TransactionIDs  []string `json:"transaction_ids,omitempty"`
	SIPExecutionIDs []string `json:"sip_execution_ids,omitempty"`
	InvestedAmount  float64  `json:"invested_amount"`
	SurplusAmount   float64  `json:"surplus_amount"`
}

type Holding struct {
	ID             string   `json:"id"`
	Bucket         string   `json:"bucket"`
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name,omitempty"`
	Qty            float64  `json:"qty"`
	AvgCost        float64  `json:"avg_cost"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	CurrentValue   float64  `json:"current_value"`
	Currency       string   `json:"currency"`
	USDINRRate     *float64 `json:"usd_inr_rate,omitempty"`
	IsManual       bool     `json:"is_manual"`
	PriceUpdatedAt int64    `json:"price_updated_at,omitempty"`
}

type Transaction struct {
	ID           string   `json:"id,omitempty"`
	HoldingID    string   `json:"holding_id,omitempty"`
	Bucket       string   `json:"bucket"`
	Symbol       string   `json:"symbol"`
	Qty          float64  `json:"qty"`
	Price        float64  `json:"price"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency,omitempty"`
	AmountINR    *float64 `json:"amount_inr,omitempty"`
	USDINRRate   *float64 `json:"usd_inr_rate,omitempty"`
	Type         string   `json:"type,omitempty"`
	PurchaseDate string   `json:"purchase_date"`
	SIPID        string   `json:"sip_id,omitempty"`
}

type Allocation struct {
	Bucket       string   `json:"bucket"`
	Type         string   `json:"type"`
	Percent      *float64 `json:"percent,omitempty"`
	CustomAmount *float64 `json:"custom_amount,omitempty"`
}

type Headroom struct {
	Bucket                 string  `json:"bucket"`
	AvailableForInvestment float64 `json:"available_for_investment"`
	Allocation             float64 `json:"allocation"`
	SIPCommitment          float64 `json:"sip_commitment"`
	AvailableForOneTime    float64 `json:"available_for_one_time"`
	Purchased              float64 `json:"purchased"`
	Remaining              float64 `json:"remaining"`
}

type Figures struct {
	NetSalary          float64 `json:"net_salary"`
	TaxAmount          float64 `json:"tax_amount"`
	AfterTax           float64 `json:"after_tax"`
	TotalLoans         float64 `json:"total_loans"`
	TotalSIPs          float64 `json:"total_sips"`
	TotalExpenses      float64 `json:"total_expenses"`
	ExpectedExpenses   float64 `json:"expected_expenses"`
	UnexpectedExpenses float64 `json:"unexpected_expenses"`
	NeedsExpenses      float64 `json:"needs_expenses"`
	AvoidExpenses      float64 `json:"avoid_expenses"`
	AvailableAmount    float64 `json:"available_amount"`
	SpentAmount        float64 `json:"spent_amount"`
	SurplusAmount      float64 `json:"surplus_amount"`
	PreviousSurplus    float64 `json:"previous_surplus"`
}

type Snapshot struct {
	ID       string  `json:"id"`
	Month    string  `json:"month"`
	Figures  Figures `json:"figures"`
	IsClosed bool    `json:"is_closed"`
	ClosedAt int64   `json:"closed_at,omitempty"`
}
