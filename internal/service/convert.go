package service

import (
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

func toIncome(i *models.Income) api.Income {
	return api.Income{
		ID:          i.ID,
		Date:        formatDate(i.Date),
		Amount:      i.Amount,
		Source:      i.Source,
		Description: i.Description,
	}
}

func fromIncome(userID string, in api.Income) (*models.Income, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	return &models.Income{
		ID:          in.ID,
		UserID:      userID,
		Date:        date,
		Amount:      in.Amount,
		Source:      in.Source,
		Description: in.Description,
	}, nil
}

func toSalary(s *models.SalaryRecord) api.SalaryRecord {
	return api.SalaryRecord{
		ID:            s.ID,
		Amount:        s.Amount,
		EffectiveFrom: formatDate(s.EffectiveFrom),
		EffectiveTo:   formatOptionalDate(s.EffectiveTo),
	}
}

func toTax(t *models.TaxSetting) *api.TaxSetting {
	if t == nil {
		return nil
	}
	return &api.TaxSetting{Mode: string(t.Mode), Percentage: t.Percentage, FixedAmount: t.FixedAmount}
}

func toLoan(l *models.Loan) api.Loan {
	return api.Loan{
		ID:                 l.ID,
		Name:               l.Name,
		PrincipalAmount:    l.PrincipalAmount,
		EMIAmount:          l.EMIAmount,
		Tenure:             l.Tenure,
		StartDate:          formatDate(l.StartDate),
		CurrentOutstanding: l.CurrentOutstanding,
	}
}

func fromLoan(userID string, in api.Loan) (*models.Loan, error) {
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	return &models.Loan{
		ID:                 in.ID,
		UserID:             userID,
		Name:               in.Name,
		PrincipalAmount:    in.PrincipalAmount,
		EMIAmount:          in.EMIAmount,
		Tenure:             in.Tenure,
		StartDate:          start,
		CurrentOutstanding: in.CurrentOutstanding,
	}, nil
}

func toSchedule(emis []*models.LoanEMI) []api.LoanEMI {
	out := make([]api.LoanEMI, len(emis))
	for i, e := range emis {
		out[i] = api.LoanEMI{
			Installment: e.Installment,
			DueDate:     formatDate(e.DueDate),
			Amount:      e.Amount,
			Paid:        e.Paid,
			PaidAt:      e.PaidAt,
		}
	}
	return out
}

func toSIP(s *models.SIP) api.SIP {
	return api.SIP{
		ID:        s.ID,
		Bucket:    string(s.Bucket),
		Symbol:    s.Symbol,
		Name:      s.Name,
		Amount:    s.Amount,
		Frequency: string(s.Frequency),
		CustomDay: s.CustomDay,
		StartDate: formatDate(s.StartDate),
		EndDate:   formatOptionalDate(s.EndDate),
		IsActive:  s.IsActive,
	}
}

func fromSIP(userID string, in api.SIP) (*models.SIP, error) {
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.SIP{
		ID:        in.ID,
		UserID:    userID,
		Bucket:    models.InvestmentBucket(in.Bucket),
		Symbol:    in.Symbol,
		Name:      in.Name,
		Amount:    in.Amount,
		Frequency: models.SIPFrequency(in.Frequency),
		CustomDay: in.CustomDay,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func toExpense(e *models.Expense) api.Expense {
	return api.Expense{
		ID:              e.ID,
		Date:            formatDate(e.Date),
		Amount:          e.Amount,
		Description:     e.Description,
		Type:            string(e.Type),
		Category:        string(e.Category),
		NeedsPortion:    e.NeedsPortion,
		AvoidPortion:    e.AvoidPortion,
		MemberID:        e.MemberID,
		MemberDirection: string(e.MemberDirection),
	}
}

func fromExpense(userID string, in api.Expense) (*models.Expense, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	return &models.Expense{
		ID:              in.ID,
		UserID:          userID,
		Date:            date,
		Amount:          in.Amount,
		Description:     in.Description,
		Type:            models.ExpenseType(in.Type),
		Category:        models.ExpenseCategory(in.Category),
		NeedsPortion:    in.NeedsPortion,
		AvoidPortion:    in.AvoidPortion,
		MemberID:        in.MemberID,
		MemberDirection: models.MemberDirection(in.MemberDirection),
	}, nil
}

func toMember(m *models.Member) api.Member {
	return api.Member{ID: m.ID, Name: m.Name, Balance: m.Balance}
}

func toMemberTransaction(t *models.MemberTransaction) api.MemberTransaction {
	return api.MemberTransaction{
		ID:        t.ID,
		MemberID:  t.MemberID,
		ExpenseID: t.ExpenseID,
		Direction: string(t.Direction),
		Amount:    t.Amount,
		Date:      formatDate(t.Date),
	}
}

func toBorrowedFund(f *models.BorrowedFund) api.BorrowedFund {
	return api.BorrowedFund{
		ID:              f.ID,
		MemberID:        f.MemberID,
		LenderName:      f.LenderName,
		BorrowedAmount:  f.BorrowedAmount,
		BorrowDate:      formatDate(f.BorrowDate),
		TransactionIDs:  f.TransactionIDs,
		SIPExecutionIDs: f.SIPExecutionIDs,
		InvestedAmount:  f.InvestedAmount,
		SurplusAmount:   f.SurplusAmount,
	}
}

func fromBorrowedFund(userID string, in api.BorrowedFund) (*models.BorrowedFund, error) {
	date, err := parseDate("borrow_date", in.BorrowDate)
	if err != nil {
		return nil, err
	}
	return &models.BorrowedFund{
		ID:              in.ID,
		UserID:          userID,
		MemberID:        in.MemberID,
		LenderName:      in.LenderName,
		BorrowedAmount:  in.BorrowedAmount,
		BorrowDate:      date,
		TransactionIDs:  in.TransactionIDs,
		SIPExecutionIDs: in.SIPExecutionIDs,
	}, nil
}

func toHolding(h *models.Holding) *api.Holding {
	if h == nil {
		return nil
	}
	return &api.Holding{
		ID:             h.ID,
		Bucket:         string(h.Bucket),
		Symbol:         h.Symbol,
		Name:           h.Name,
		Qty:            h.Qty,
		AvgCost:        h.AvgCost,
		CurrentPrice:   h.CurrentPrice,
		CurrentValue:   h.CurrentValue(),
		Currency:       h.Currency,
		USDINRRate:     h.USDINRRate,
		IsManual:       h.IsManual,
		PriceUpdatedAt: h.PriceUpdatedAt,
	}
}

func toTransaction(t *models.Transaction) api.Transaction {
	return api.Transaction{
		ID:           t.ID,
		HoldingID:    t.HoldingID,
		Bucket:       string(t.Bucket),
		Symbol:       t.Symbol,
		Qty:          t.Qty,
		Price:        t.Price,
		Amount:       t.Amount,
		Currency:     t.Currency,
		AmountINR:    t.AmountINR,
		USDINRRate:   t.USDINRRate,
		Type:         string(t.Type),
		PurchaseDate: formatDate(t.PurchaseDate),
		SIPID:        t.SIPID,
	}
}

func fromTransaction(userID string, in api.Transaction) (*models.Transaction, error) {
	date, err := parseDate("purchase_date", in.PurchaseDate)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		UserID:       userID,
		Bucket:       models.InvestmentBucket(in.Bucket),
		Symbol:       in.Symbol,
		Qty:          in.Qty,
		Price:        in.Price,
		Currency:     in.Currency,
		USDINRRate:   in.USDINRRate,
		Type:         models.TransactionType(in.Type),
		PurchaseDate: date,
	}, nil
}

func toAllocation(a *models.InvestmentAllocation) api.Allocation {
	return api.Allocation{
		Bucket:       string(a.Bucket),
		Type:         string(a.Type),
		Percent:      a.Percent,
		CustomAmount: a.CustomAmount,
	}
}

func toAllocations(allocs []models.InvestmentAllocation) []api.Allocation {
	out := make([]api.Allocation, len(allocs))
	for i := range allocs {
		out[i] = toAllocation(&allocs[i])
	}
	return out
}

func fromAllocation(userID string, in api.Allocation) models.InvestmentAllocation {
	return models.InvestmentAllocation{
		UserID:       userID,
		Bucket:       models.InvestmentBucket(in.Bucket),
		Type:         models.AllocationType(in.Type),
		Percent:      in.Percent,
		CustomAmount: in.CustomAmount,
	}
}

func toHeadroom(h calculator.Headroom) api.Headroom {
	return api.Headroom{
		Bucket:                 string(h.Bucket),
		AvailableForInvestment: h.AvailableForInvestment,
		Allocation:             h.Allocation,
		SIPCommitment:          h.SIPCommitment,
		AvailableForOneTime:    h.AvailableForOneTime,
		Purchased:              h.Purchased,
		Remaining:              h.Remaining,
	}
}

func toFigures(f models.SnapshotFigures) api.Figures {
	return api.Figures{
		NetSalary:          f.NetSalary,
		TaxAmount:          f.TaxAmount,
		AfterTax:           f.AfterTax,
		TotalLoans:         f.TotalLoans,
		TotalSIPs:          f.TotalSIPs,
		TotalExpenses:      f.TotalExpenses,
		ExpectedExpenses:   f.ExpectedExpenses,
		UnexpectedExpenses: f.UnexpectedExpenses,
		NeedsExpenses:      f.NeedsExpenses,
		AvoidExpenses:      f.AvoidExpenses,
		AvailableAmount:    f.AvailableAmount,
		SpentAmount:        f.SpentAmount,
		SurplusAmount:      f.SurplusAmount,
		PreviousSurplus:    f.PreviousSurplus,
	}
}

func toSnapshot(s *models.MonthlySnapshot) api.Snapshot {
	return api.Snapshot{
		ID:       s.ID,
		Month:    s.Period().String(),
		Figures:  toFigures(s.SnapshotFigures),
		IsClosed: s.IsClosed,
		ClosedAt: s.ClosedAt,
	}
}
