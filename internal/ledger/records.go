package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/period"
	"github.com/mmynk/fintrack/internal/storage"
)

// AddIncome records income dated in an open month.
func (l *Ledger) AddIncome(ctx context.Context, income *models.Income) error {
	if err := income.Validate(); err != nil {
		return err
	}
	return l.store.InTx(ctx, func(r storage.Repo) error {
		if err := checkOpen(ctx, r, income.UserID, income.Date, "add income"); err != nil {
			return err
		}
		return r.CreateIncome(ctx, income)
	})
}

// UpdateIncome changes an income record. Both its old and new month must be open.
func (l *Ledger) UpdateIncome(ctx context.Context, income *models.Income) error {
	if err := income.Validate(); err != nil {
		return err
	}
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetIncome(ctx, income.UserID, income.ID)
		if err != nil {
			return err
		}
		if err := checkMove(ctx, r, income.UserID, old.Date, income.Date, "update income"); err != nil {
			return err
		}
		income.CreatedAt = old.CreatedAt
		return r.UpdateIncome(ctx, income)
	})
}

// DeleteIncome removes an income record from an open month.
func (l *Ledger) DeleteIncome(ctx context.Context, userID, id string) error {
	return l.store.InTx(ctx, func(r storage.Repo) error {
		old, err := r.GetIncome(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := checkOpen(ctx, r, userID, old.Date, "delete income"); err != nil {
			return err
		}
		return r.DeleteIncome(ctx, userID, id)
	})
}

// ListIncomes returns income recorded in month.
func (l *Ledger) ListIncomes(ctx context.Context, userID string, month period.Month) ([]*models.Income, error) {
	return l.store.ListIncomes(ctx, userID, month.Start(), month.LastDay())
}

// SetSalary supersedes the current salary from effectiveFrom onwards.
func (l *Ledger) SetSalary(ctx context.Context, userID string, amount float64, effectiveFrom time.Time) (*models.SalaryRecord, error) {
	rec := &models.SalaryRecord{UserID: userID, Amount: amount, EffectiveFrom: effectiveFrom}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	err := l.store.InTx(ctx, func(r storage.Repo) error {
		cur, err := r.FindCurrentSalary(ctx, userID)
		if err != nil {
			return err
		}
		if cur != nil {
			if !effectiveFrom.After(cur.EffectiveFrom) {
				return apperr.Invalid("effective_from", "must be after the current salary's effective date %s",
					cur.EffectiveFrom.Format("2006-01-02"))
			}
			if err := r.SetSalaryEffectiveTo(ctx, userID, cur.ID, effectiveFrom); err != nil {
				return err
			}
		}
		return r.CreateSalaryRecord(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Salary updated", "user_id", userID, "effective_from", effectiveFrom.Format("2006-01-02"))
	return rec, nil
}

// SalaryHistory returns every salary record, newest first.
func (l *Ledger) SalaryHistory(ctx context.Context, userID string) ([]models.SalaryRecord, error) {
	return l.store.ListSalaryRecords(ctx, userID)
}

// SetTax replaces the user's tax setting.
func (l *Ledger) SetTax(ctx context.Context, setting *models.TaxSetting) error {
	if err := setting.Validate(); err != nil {
		return err
	}
	return l.store.SaveTaxSetting(ctx, setting)
}

// GetTax returns the user's tax setting, or nil when none is set.
func (l *Ledger) GetTax(ctx context.Context, userID string) (*models.TaxSetting, error) {
	return l.store.FindTaxSetting(ctx, userID)
}

// CreateLoan records a loan and its EMI schedule. The start month must be open.
func (l *Ledger) CreateLoan(ctx context.Context, loan *models.Loan) ([]*models.LoanEMI, error) {
	if err := loan.Validate(); err != nil {
		return nil, err
	}
	if loan.CurrentOutstanding == 0 {
		loan.CurrentOutstanding = loan.PrincipalAmount
	}

	start := period.Of(loan.StartDate)
	emis := make([]*models.LoanEMI, loan.Tenure)
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		if err := checkOpen(ctx, r, loan.UserID, loan.StartDate, "add loan"); err != nil {
			return err
		}
		if err := r.CreateLoan(ctx, loan); err != nil {
			return err
		}
		for i := range emis {
			emis[i] = &models.LoanEMI{
				LoanID:      loan.ID,
				Installment: i + 1,
				DueDate:     dueDate(loan.StartDate, start, i),
				Amount:      loan.EMIAmount,
			}
			if err := r.CreateLoanEMI(ctx, emis[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Loan created", "user_id", loan.UserID, "loan_id", loan.ID, "tenure", loan.Tenure)
	return emis, nil
}

// dueDate keeps the start day of month, clamped to shorter months.
func dueDate(startDate time.Time, start period.Month, i int) time.Time {
	m := start
	for range i {
		m = m.Next()
	}
	if last := m.LastDay(); startDate.Day() > last.Day() {
		return last
	}
	return time.Date(m.Year, m.Month, startDate.Day(), 0, 0, 0, 0, time.UTC)
}

// DeleteLoan removes a loan and its schedule. The start month must be open.
func (l *Ledger) DeleteLoan(ctx context.Context, userID, id string) error {
	return l.store.InTx(ctx, func(r storage.Repo) error {
		loan, err := r.GetLoan(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := checkOpen(ctx, r, userID, loan.StartDate, "delete loan"); err != nil {
			return err
		}
		return r.DeleteLoan(ctx, userID, id)
	})
}

// PayEMI marks an installment paid and reduces the outstanding balance.
func (l *Ledger) PayEMI(ctx context.Context, userID, loanID string, installment int) (*models.Loan, error) {
	var loan *models.Loan
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		if loan, err = r.GetLoan(ctx, userID, loanID); err != nil {
			return err
		}
		emis, err := r.ListLoanEMIs(ctx, loanID)
		if err != nil {
			return err
		}
		var emi *models.LoanEMI
		for _, e := range emis {
			if e.Installment == installment {
				emi = e
				break
			}
		}
		if emi == nil {
			return apperr.NotFound("installment", loanID)
		}
		if err := checkOpen(ctx, r, userID, emi.DueDate, "pay EMI"); err != nil {
			return err
		}
		if err := r.MarkEMIPaid(ctx, loanID, installment, l.now().Unix()); err != nil {
			return err
		}

		loan.CurrentOutstanding -= emi.Amount
		if loan.CurrentOutstanding < 0 {
			loan.CurrentOutstanding = 0
		}
		return r.UpdateLoanOutstanding(ctx, userID, loanID, loan.CurrentOutstanding)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListLoans returns the user's loans.
func (l *Ledger) ListLoans(ctx context.Context, userID string) ([]models.Loan, error) {
	return l.store.ListLoans(ctx, userID)
}

// LoanSchedule returns a loan's EMIs in installment order.
func (l *Ledger) LoanSchedule(ctx context.Context, userID, loanID string) ([]*models.LoanEMI, error) {
	if _, err := l.store.GetLoan(ctx, userID, loanID); err != nil {
		return nil, err
	}
	return l.store.ListLoanEMIs(ctx, loanID)
}

// CreateSIP registers a recurring investment.
func (l *Ledger) CreateSIP(ctx context.Context, sip *models.SIP) error {
	sip.Symbol = models.NormalizeSymbol(sip.Symbol)
	if err := sip.Validate(); err != nil {
		return err
	}
	sip.IsActive = true
	return l.store.CreateSIP(ctx, sip)
}

// StopSIP ends a SIP on end. Months up to end keep its contribution.
func (l *Ledger) StopSIP(ctx context.Context, userID, id string, end time.Time) (*models.SIP, error) {
	var sip *models.SIP
	err := l.store.InTx(ctx, func(r storage.Repo) error {
		var err error
		if sip, err = r.GetSIP(ctx, userID, id); err != nil {
			return err
		}
		if end.Before(sip.StartDate) {
			return apperr.Invalid("end_date", "must not be before start_date")
		}
		sip.EndDate = &end
		return r.UpdateSIP(ctx, sip)
	})
	if err != nil {
		return nil, err
	}
	return sip, nil
}

// ListSIPs returns the user's SIPs.
func (l *Ledger) ListSIPs(ctx context.Context, userID string) ([]models.SIP, error) {
	return l.store.ListSIPs(ctx, userID)
}
