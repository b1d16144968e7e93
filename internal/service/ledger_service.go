package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

// LedgerService records income, salary, tax, loans, SIPs, expenses, members
// and borrowed funds.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a LedgerService over l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// Handler mounts every LedgerService procedure.
func (s *LedgerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	p := func(m string) string { return api.Procedure(api.LedgerServiceName, m) }
	return api.NewServiceHandler(api.LedgerServiceName,
		api.Unary(p("AddIncome"), s.AddIncome, opts...),
		api.Unary(p("UpdateIncome"), s.UpdateIncome, opts...),
		api.Unary(p("DeleteIncome"), s.DeleteIncome, opts...),
		api.Unary(p("ListIncomes"), s.ListIncomes, opts...),
		api.Unary(p("SetSalary"), s.SetSalary, opts...),
		api.Unary(p("ListSalaryHistory"), s.ListSalaryHistory, opts...),
		api.Unary(p("SetTax"), s.SetTax, opts...),
		api.Unary(p("GetTax"), s.GetTax, opts...),
		api.Unary(p("CreateLoan"), s.CreateLoan, opts...),
		api.Unary(p("DeleteLoan"), s.DeleteLoan, opts...),
		api.Unary(p("PayEMI"), s.PayEMI, opts...),
		api.Unary(p("ListLoans"), s.ListLoans, opts...),
		api.Unary(p("GetLoanSchedule"), s.GetLoanSchedule, opts...),
		api.Unary(p("CreateSIP"), s.CreateSIP, opts...),
		api.Unary(p("StopSIP"), s.StopSIP, opts...),
		api.Unary(p("ListSIPs"), s.ListSIPs, opts...),
		api.Unary(p("AddExpense"), s.AddExpense, opts...),
		api.Unary(p("UpdateExpense"), s.UpdateExpense, opts...),
		api.Unary(p("DeleteExpense"), s.DeleteExpense, opts...),
		api.Unary(p("ListExpenses"), s.ListExpenses, opts...),
		api.Unary(p("AddMember"), s.AddMember, opts...),
		api.Unary(p("ListMembers"), s.ListMembers, opts...),
		api.Unary(p("GetMemberStatement"), s.GetMemberStatement, opts...),
		api.Unary(p("CreateBorrowedFund"), s.CreateBorrowedFund, opts...),
		api.Unary(p("UpdateBorrowedFund"), s.UpdateBorrowedFund, opts...),
		api.Unary(p("DeleteBorrowedFund"), s.DeleteBorrowedFund, opts...),
		api.Unary(p("ListBorrowedFunds"), s.ListBorrowedFunds, opts...),
	)
}

// AddIncome records side income.
func (s *LedgerService) AddIncome(ctx context.Context, req *connect.Request[api.IncomeRequest]) (*connect.Response[api.IncomeResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	income, err := fromIncome(userID, req.Msg.Income)
	if err != nil {
		return nil, fail("AddIncome", userID, err)
	}
	income.ID = ""
	if err := s.ledger.AddIncome(ctx, income); err != nil {
		return nil, fail("AddIncome", userID, err)
	}
	return connect.NewResponse(&api.IncomeResponse{Income: toIncome(income)}), nil
}

// UpdateIncome replaces an income record.
func (s *LedgerService) UpdateIncome(ctx context.Context, req *connect.Request[api.IncomeRequest]) (*connect.Response[api.IncomeResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	income, err := fromIncome(userID, req.Msg.Income)
	if err != nil {
		return nil, fail("UpdateIncome", userID, err)
	}
	if err := s.ledger.UpdateIncome(ctx, income); err != nil {
		return nil, fail("UpdateIncome", userID, err)
	}
	return connect.NewResponse(&api.IncomeResponse{Income: toIncome(income)}), nil
}

// DeleteIncome removes an income record.
func (s *LedgerService) DeleteIncome(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteIncome(ctx, userID, req.Msg.ID); err != nil {
		return nil, fail("DeleteIncome", userID, err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// ListIncomes returns income for a month.
func (s *LedgerService) ListIncomes(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.ListIncomesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth())
	if err != nil {
		return nil, fail("ListIncomes", userID, err)
	}
	incomes, err := s.ledger.ListIncomes(ctx, userID, month)
	if err != nil {
		return nil, fail("ListIncomes", userID, err)
	}
	out := make([]api.Income, len(incomes))
	for i, in := range incomes {
		out[i] = toIncome(in)
	}
	return connect.NewResponse(&api.ListIncomesResponse{Incomes: out}), nil
}

// SetSalary starts a new current salary record.
func (s *LedgerService) SetSalary(ctx context.Context, req *connect.Request[api.SetSalaryRequest]) (*connect.Response[api.SalaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	from, err := parseDate("effective_from", req.Msg.EffectiveFrom)
	if err != nil {
		return nil, fail("SetSalary", userID, err)
	}
	rec, err := s.ledger.SetSalary(ctx, userID, req.Msg.Amount, from)
	if err != nil {
		return nil, fail("SetSalary", userID, err)
	}
	return connect.NewResponse(&api.SalaryResponse{Salary: toSalary(rec)}), nil
}

// ListSalaryHistory returns every salary record.
func (s *LedgerService) ListSalaryHistory(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.SalaryHistoryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.ledger.SalaryHistory(ctx, userID)
	if err != nil {
		return nil, fail("ListSalaryHistory", userID, err)
	}
	out := make([]api.SalaryRecord, len(recs))
	for i := range recs {
		out[i] = toSalary(&recs[i])
	}
	return connect.NewResponse(&api.SalaryHistoryResponse{Salaries: out}), nil
}

// SetTax replaces the tax setting.
func (s *LedgerService) SetTax(ctx context.Context, req *connect.Request[api.TaxRequest]) (*connect.Response[api.TaxResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	setting := &models.TaxSetting{
		UserID:      userID,
		Mode:        models.TaxMode(req.Msg.Tax.Mode),
		Percentage:  req.Msg.Tax.Percentage,
		FixedAmount: req.Msg.Tax.FixedAmount,
	}
	if err := s.ledger.SetTax(ctx, setting); err != nil {
		return nil, fail("SetTax", userID, err)
	}
	return connect.NewResponse(&api.TaxResponse{Tax: toTax(setting)}), nil
}

// GetTax returns the tax setting; Tax is null when none is configured.
func (s *LedgerService) GetTax(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.TaxResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	setting, err := s.ledger.GetTax(ctx, userID)
	if err != nil {
		return nil, fail("GetTax", userID, err)
	}
	return connect.NewResponse(&api.TaxResponse{Tax: toTax(setting)}), nil
}

// CreateLoan records a loan and returns its EMI schedule.
func (s *LedgerService) CreateLoan(ctx context.Context, req *connect.Request[api.LoanRequest]) (*connect.Response[api.LoanResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	loan, err := fromLoan(userID, req.Msg.Loan)
	if err != nil {
		return nil, fail("CreateLoan", userID, err)
	}
	loan.ID = ""
	emis, err := s.ledger.CreateLoan(ctx, loan)
	if err != nil {
		return nil, fail("CreateLoan", userID, err)
	}
	return connect.NewResponse(&api.LoanResponse{Loan: toLoan(loan), Schedule: toSchedule(emis)}), nil
}

// DeleteLoan removes a loan and its schedule.
func (s *LedgerService) DeleteLoan(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteLoan(ctx, userID, req.Msg.ID); err != nil {
		return nil, fail("DeleteLoan", userID, err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// PayEMI marks one installment paid.
func (s *LedgerService) PayEMI(ctx context.Context, req *connect.Request[api.PayEMIRequest]) (*connect.Response[api.LoanResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	loan, err := s.ledger.PayEMI(ctx, userID, req.Msg.LoanID, req.Msg.Installment)
	if err != nil {
		return nil, fail("PayEMI", userID, err)
	}
	return connect.NewResponse(&api.LoanResponse{Loan: toLoan(loan)}), nil
}

// ListLoans returns every loan.
func (s *LedgerService) ListLoans(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListLoansResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.ledger.ListLoans(ctx, userID)
	if err != nil {
		return nil, fail("ListLoans", userID, err)
	}
	out := make([]api.Loan, len(loans))
	for i := range loans {
		out[i] = toLoan(&loans[i])
	}
	return connect.NewResponse(&api.ListLoansResponse{Loans: out}), nil
}

// GetLoanSchedule returns a loan's EMIs.
func (s *LedgerService) GetLoanSchedule(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.LoanScheduleResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	emis, err := s.ledger.LoanSchedule(ctx, userID, req.Msg.ID)
	if err != nil {
		return nil, fail("GetLoanSchedule", userID, err)
	}
	return connect.NewResponse(&api.LoanScheduleResponse{Schedule: toSchedule(emis)}), nil
}

// CreateSIP starts a SIP.
func (s *LedgerService) CreateSIP(ctx context.Context, req *connect.Request[api.SIPRequest]) (*connect.Response[api.SIPResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	sip, err := fromSIP(userID, req.Msg.SIP)
	if err != nil {
		return nil, fail("CreateSIP", userID, err)
	}
	sip.ID = ""
	if err := s.ledger.CreateSIP(ctx, sip); err != nil {
		return nil, fail("CreateSIP", userID, err)
	}
	return connect.NewResponse(&api.SIPResponse{SIP: toSIP(sip)}), nil
}

// StopSIP ends a SIP on the given date.
func (s *LedgerService) StopSIP(ctx context.Context, req *connect.Request[api.StopSIPRequest]) (*connect.Response[api.SIPResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.Msg.EndDate)
	if err != nil {
		return nil, fail("StopSIP", userID, err)
	}
	sip, err := s.ledger.StopSIP(ctx, userID, req.Msg.ID, end)
	if err != nil {
		return nil, fail("StopSIP", userID, err)
	}
	return connect.NewResponse(&api.SIPResponse{SIP: toSIP(sip)}), nil
}

// ListSIPs returns every SIP.
func (s *LedgerService) ListSIPs(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListSIPsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	sips, err := s.ledger.ListSIPs(ctx, userID)
	if err != nil {
		return nil, fail("ListSIPs", userID, err)
	}
	out := make([]api.SIP, len(sips))
	for i := range sips {
		out[i] = toSIP(&sips[i])
	}
	return connect.NewResponse(&api.ListSIPsResponse{SIPs: out}), nil
}

// AddExpense records an expense and its member effect.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	e, err := fromExpense(userID, req.Msg.Expense)
	if err != nil {
		return nil, fail("AddExpense", userID, err)
	}
	e.ID = ""
	if err := s.ledger.AddExpense(ctx, e); err != nil {
		return nil, fail("AddExpense", userID, err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toExpense(e)}), nil
}

// UpdateExpense replaces an expense.
func (s *LedgerService) UpdateExpense(ctx context.Context, req *connect.Request[api.ExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	e, err := fromExpense(userID, req.Msg.Expense)
	if err != nil {
		return nil, fail("UpdateExpense", userID, err)
	}
	if err := s.ledger.UpdateExpense(ctx, e); err != nil {
		return nil, fail("UpdateExpense", userID, err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toExpense(e)}), nil
}

// DeleteExpense removes an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteExpense(ctx, userID, req.Msg.ID); err != nil {
		return nil, fail("DeleteExpense", userID, err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// ListExpenses returns expenses for a month.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.MonthRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	month, err := monthOr(req.Msg.Month, s.ledger.CurrentMonth())
	if err != nil {
		return nil, fail("ListExpenses", userID, err)
	}
	expenses, err := s.ledger.ListExpenses(ctx, userID, month)
	if err != nil {
		return nil, fail("ListExpenses", userID, err)
	}
	out := make([]api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toExpense(&expenses[i])
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// AddMember registers a member.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.MemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	m := &models.Member{UserID: userID, Name: req.Msg.Name}
	if err := s.ledger.AddMember(ctx, m); err != nil {
		return nil, fail("AddMember", userID, err)
	}
	return connect.NewResponse(&api.MemberResponse{Member: toMember(m)}), nil
}

// ListMembers returns members with balances.
func (s *LedgerService) ListMembers(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListMembersResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.ledger.ListMembers(ctx, userID)
	if err != nil {
		return nil, fail("ListMembers", userID, err)
	}
	out := make([]api.Member, len(members))
	for i, m := range members {
		out[i] = toMember(m)
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}

// GetMemberStatement returns a member's entries and balance.
func (s *LedgerService) GetMemberStatement(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.MemberStatementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	entries, bal, err := s.ledger.MemberStatement(ctx, userID, req.Msg.ID)
	if err != nil {
		return nil, fail("GetMemberStatement", userID, err)
	}
	out := make([]api.MemberTransaction, len(entries))
	for i := range entries {
		out[i] = toMemberTransaction(&entries[i])
	}
	return connect.NewResponse(&api.MemberStatementResponse{
		Entries: out,
		Balance: api.MemberBalance{
			MemberID:   bal.MemberID,
			PaidFor:    bal.PaidFor,
			PaidBy:     bal.PaidBy,
			NetBalance: bal.NetBalance,
		},
	}), nil
}

// CreateBorrowedFund records borrowed money.
func (s *LedgerService) CreateBorrowedFund(ctx context.Context, req *connect.Request[api.BorrowedFundRequest]) (*connect.Response[api.BorrowedFundResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	fund, err := fromBorrowedFund(userID, req.Msg.Fund)
	if err != nil {
		return nil, fail("CreateBorrowedFund", userID, err)
	}
	fund.ID = ""
	if err := s.ledger.CreateBorrowedFund(ctx, fund); err != nil {
		return nil, fail("CreateBorrowedFund", userID, err)
	}
	return connect.NewResponse(&api.BorrowedFundResponse{Fund: toBorrowedFund(fund)}), nil
}

// UpdateBorrowedFund replaces a borrowed fund and its links.
func (s *LedgerService) UpdateBorrowedFund(ctx context.Context, req *connect.Request[api.BorrowedFundRequest]) (*connect.Response[api.BorrowedFundResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	fund, err := fromBorrowedFund(userID, req.Msg.Fund)
	if err != nil {
		return nil, fail("UpdateBorrowedFund", userID, err)
	}
	if err := s.ledger.UpdateBorrowedFund(ctx, fund); err != nil {
		return nil, fail("UpdateBorrowedFund", userID, err)
	}
	return connect.NewResponse(&api.BorrowedFundResponse{Fund: toBorrowedFund(fund)}), nil
}

// DeleteBorrowedFund removes a borrowed fund.
func (s *LedgerService) DeleteBorrowedFund(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteBorrowedFund(ctx, userID, req.Msg.ID); err != nil {
		return nil, fail("DeleteBorrowedFund", userID, err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// ListBorrowedFunds returns every borrowed fund.
func (s *LedgerService) ListBorrowedFunds(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListBorrowedFundsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	funds, err := s.ledger.ListBorrowedFunds(ctx, userID)
	if err != nil {
		return nil, fail("ListBorrowedFunds", userID, err)
	}
	out := make([]api.BorrowedFund, len(funds))
	for i, f := range funds {
		out[i] = toBorrowedFund(f)
	}
	return connect.NewResponse(&api.ListBorrowedFundsResponse{Funds: out}), nil
}
