package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	"github.com/mmynk/fintrack/pkg/api"
)

var testNow = time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)

const testJobToken = "job-secret"

type testServer struct {
	client *api.Client // authenticated as userID
	anon   *api.Client
	url    string
	userID string
}

func fp(v float64) *float64 { return &v }

// setupTestServer starts every service behind auth against a temp database.
func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "fintrack-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	user := &models.User{Name: "Asha", Email: "asha@example.com", Active: true}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	l := ledger.New(store, ledger.WithClock(func() time.Time { return testNow }))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	interceptors := connect.WithInterceptors(
		metrics.New().Interceptor(),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	r := mux.NewRouter()
	for _, svc := range []interface {
		Handler(...connect.HandlerOption) (string, http.Handler)
	}{
		NewLedgerService(l),
		NewPortfolioService(l),
		NewSnapshotService(l),
	} {
		path, handler := svc.Handler(interceptors)
		r.PathPrefix(path).Handler(handler)
	}
	NewJobsHandler(l, testJobToken).Register(r)

	server := httptest.NewServer(r)
	anon := api.NewClient(http.DefaultClient, server.URL)

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return &testServer{
		client: anon.WithToken(token),
		anon:   anon,
		url:    server.URL,
		userID: user.ID,
	}, cleanup
}

func ledgerProc(m string) string    { return api.Procedure(api.LedgerServiceName, m) }
func portfolioProc(m string) string { return api.Procedure(api.PortfolioServiceName, m) }
func snapshotProc(m string) string  { return api.Procedure(api.SnapshotServiceName, m) }

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

// seedMarch records salary, tax, a loan, a SIP and two March expenses.
func seedMarch(t *testing.T, c *api.Client) {
	t.Helper()
	ctx := context.Background()

	if _, err := api.Call[api.SetSalaryRequest, api.SalaryResponse](ctx, c, ledgerProc("SetSalary"),
		&api.SetSalaryRequest{Amount: 50000, EffectiveFrom: "2025-01-01"}); err != nil {
		t.Fatalf("SetSalary failed: %v", err)
	}
	if _, err := api.Call[api.TaxRequest, api.TaxResponse](ctx, c, ledgerProc("SetTax"),
		&api.TaxRequest{Tax: api.TaxSetting{Mode: "PERCENTAGE", Percentage: fp(10)}}); err != nil {
		t.Fatalf("SetTax failed: %v", err)
	}
	loan, err := api.Call[api.LoanRequest, api.LoanResponse](ctx, c, ledgerProc("CreateLoan"),
		&api.LoanRequest{Loan: api.Loan{Name: "Car", PrincipalAmount: 120000, EMIAmount: 10000, Tenure: 12, StartDate: "2025-01-01"}})
	if err != nil {
		t.Fatalf("CreateLoan failed: %v", err)
	}
	if len(loan.Schedule) != 12 {
		t.Errorf("expected 12 EMIs, got %d", len(loan.Schedule))
	}
	if _, err := api.Call[api.SIPRequest, api.SIPResponse](ctx, c, ledgerProc("CreateSIP"),
		&api.SIPRequest{SIP: api.SIP{Bucket: "MUTUAL_FUND", Symbol: "nifty50", Amount: 4000, Frequency: "MONTHLY", StartDate: "2025-01-01"}}); err != nil {
		t.Fatalf("CreateSIP failed: %v", err)
	}

	for _, e := range []api.Expense{
		{Date: "2025-03-10", Amount: 6000, Description: "Rent share", Type: "EXPECTED", Category: "NEEDS"},
		{Date: "2025-03-20", Amount: 2000, Description: "Groceries", Type: "UNEXPECTED", Category: "PARTIAL_NEEDS",
			NeedsPortion: fp(1500), AvoidPortion: fp(500)},
	} {
		if _, err := api.Call[api.ExpenseRequest, api.ExpenseResponse](ctx, c, ledgerProc("AddExpense"),
			&api.ExpenseRequest{Expense: e}); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
	}
}

func TestRequiresAuth(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := api.Call[api.Empty, api.ListLoansResponse](context.Background(), ts.anon, ledgerProc("ListLoans"), &api.Empty{})
	expectCode(t, err, connect.CodeUnauthenticated)

	_, err = api.Call[api.Empty, api.ListLoansResponse](context.Background(), ts.anon.WithToken("garbage"), ledgerProc("ListLoans"), &api.Empty{})
	expectCode(t, err, connect.CodeUnauthenticated)
}

func TestSnapshotLifecycle(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()
	seedMarch(t, ts.client)

	preview, err := api.Call[api.MonthRequest, api.PreviewResponse](ctx, ts.client, snapshotProc("PreviewMonth"),
		&api.MonthRequest{Month: "2025-03"})
	if err != nil {
		t.Fatalf("PreviewMonth failed: %v", err)
	}
	f := preview.Figures
	if f.AfterTax != 45000 || f.AvailableAmount != 31000 || f.SurplusAmount != 23000 {
		t.Errorf("unexpected figures: after tax %v, available %v, surplus %v", f.AfterTax, f.AvailableAmount, f.SurplusAmount)
	}
	if f.NeedsExpenses != 7500 || f.AvoidExpenses != 500 {
		t.Errorf("unexpected needs/avoid split: %v/%v", f.NeedsExpenses, f.AvoidExpenses)
	}

	_, err = api.Call[api.MonthRequest, api.SnapshotResponse](ctx, ts.client, snapshotProc("GetSnapshot"),
		&api.MonthRequest{Month: "2025-03"})
	expectCode(t, err, connect.CodeNotFound)

	// Default month is the one before testNow.
	closed, err := api.Call[api.MonthRequest, api.CloseMonthResponse](ctx, ts.client, snapshotProc("CloseMonth"), &api.MonthRequest{})
	if err != nil {
		t.Fatalf("CloseMonth failed: %v", err)
	}
	if closed.Outcome != string(ledger.OutcomeCreated) {
		t.Errorf("expected outcome created, got %s", closed.Outcome)
	}
	if closed.Snapshot.Month != "2025-03" || !closed.Snapshot.IsClosed {
		t.Errorf("expected closed 2025-03 snapshot, got %+v", closed.Snapshot)
	}

	again, err := api.Call[api.MonthRequest, api.CloseMonthResponse](ctx, ts.client, snapshotProc("CloseMonth"),
		&api.MonthRequest{Month: "2025-03"})
	if err != nil {
		t.Fatalf("second CloseMonth failed: %v", err)
	}
	if again.Outcome != string(ledger.OutcomeSkipped) {
		t.Errorf("expected outcome skipped, got %s", again.Outcome)
	}

	_, err = api.Call[api.ExpenseRequest, api.ExpenseResponse](ctx, ts.client, ledgerProc("AddExpense"),
		&api.ExpenseRequest{Expense: api.Expense{Date: "2025-03-31", Amount: 10, Type: "EXPECTED", Category: "NEEDS"}})
	expectCode(t, err, connect.CodeFailedPrecondition)

	_, err = api.Call[api.IncomeRequest, api.IncomeResponse](ctx, ts.client, ledgerProc("AddIncome"),
		&api.IncomeRequest{Income: api.Income{Date: "2025-03-05", Amount: 500, Source: "Freelance"}})
	expectCode(t, err, connect.CodeFailedPrecondition)

	if _, err := api.Call[api.IncomeRequest, api.IncomeResponse](ctx, ts.client, ledgerProc("AddIncome"),
		&api.IncomeRequest{Income: api.Income{Date: "2025-04-05", Amount: 500, Source: "Freelance"}}); err != nil {
		t.Fatalf("AddIncome in open month failed: %v", err)
	}

	list, err := api.Call[api.Empty, api.ListSnapshotsResponse](ctx, ts.client, snapshotProc("ListSnapshots"), &api.Empty{})
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(list.Snapshots) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(list.Snapshots))
	}

	refreshed, err := api.Call[api.MonthRequest, api.SnapshotResponse](ctx, ts.client, snapshotProc("RefreshSnapshot"),
		&api.MonthRequest{Month: "2025-04"})
	if err != nil {
		t.Fatalf("RefreshSnapshot failed: %v", err)
	}
	if refreshed.Snapshot.IsClosed {
		t.Error("expected April snapshot to stay open")
	}
	if refreshed.Snapshot.Figures.PreviousSurplus != 23000 {
		t.Errorf("expected previous surplus 23000, got %v", refreshed.Snapshot.Figures.PreviousSurplus)
	}
}

func TestValidationErrors(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"bad date", func() error {
			_, err := api.Call[api.IncomeRequest, api.IncomeResponse](ctx, ts.client, ledgerProc("AddIncome"),
				&api.IncomeRequest{Income: api.Income{Date: "15/04/2025", Amount: 1, Source: "x"}})
			return err
		}},
		{"bad month", func() error {
			_, err := api.Call[api.MonthRequest, api.ListExpensesResponse](ctx, ts.client, ledgerProc("ListExpenses"),
				&api.MonthRequest{Month: "2025-13"})
			return err
		}},
		{"partial needs mismatch", func() error {
			_, err := api.Call[api.ExpenseRequest, api.ExpenseResponse](ctx, ts.client, ledgerProc("AddExpense"),
				&api.ExpenseRequest{Expense: api.Expense{Date: "2025-04-01", Amount: 100, Type: "EXPECTED",
					Category: "PARTIAL_NEEDS", NeedsPortion: fp(10), AvoidPortion: fp(10)}})
			return err
		}},
		{"allocations over 100 percent", func() error {
			_, err := api.Call[api.AllocationsRequest, api.AllocationsResponse](ctx, ts.client, portfolioProc("ReplaceAllocations"),
				&api.AllocationsRequest{Allocations: []api.Allocation{
					{Bucket: "US_STOCK", Type: "PERCENTAGE", Percent: fp(60)},
					{Bucket: "CRYPTO", Type: "PERCENTAGE", Percent: fp(50)},
				}})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, tt.call(), connect.CodeInvalidArgument)
		})
	}
}

func TestPortfolio(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := ts.client

	if _, err := api.Call[api.SetSalaryRequest, api.SalaryResponse](ctx, c, ledgerProc("SetSalary"),
		&api.SetSalaryRequest{Amount: 20000, EffectiveFrom: "2025-01-01"}); err != nil {
		t.Fatalf("SetSalary failed: %v", err)
	}
	if _, err := api.Call[api.AllocationsRequest, api.AllocationsResponse](ctx, c, portfolioProc("ReplaceAllocations"),
		&api.AllocationsRequest{Allocations: []api.Allocation{{Bucket: "IND_STOCK", Type: "AMOUNT", CustomAmount: fp(10000)}}}); err != nil {
		t.Fatalf("ReplaceAllocations failed: %v", err)
	}
	if _, err := api.Call[api.SIPRequest, api.SIPResponse](ctx, c, ledgerProc("CreateSIP"),
		&api.SIPRequest{SIP: api.SIP{Bucket: "IND_STOCK", Symbol: "NIFTYBEES", Amount: 4000, Frequency: "MONTHLY", StartDate: "2025-01-01"}}); err != nil {
		t.Fatalf("CreateSIP failed: %v", err)
	}

	t.Run("availability", func(t *testing.T) {
		resp, err := api.Call[api.AvailabilityRequest, api.AvailabilityResponse](ctx, c, portfolioProc("GetAvailability"),
			&api.AvailabilityRequest{Bucket: "IND_STOCK"})
		if err != nil {
			t.Fatalf("GetAvailability failed: %v", err)
		}
		if resp.Headroom.Remaining != 6000 {
			t.Errorf("expected 6000 remaining, got %v", resp.Headroom.Remaining)
		}
	})

	t.Run("one-time purchase over headroom", func(t *testing.T) {
		_, err := api.Call[api.TransactionRequest, api.HoldingResponse](ctx, c, portfolioProc("RecordOneTimePurchase"),
			&api.TransactionRequest{Transaction: api.Transaction{Bucket: "IND_STOCK", Symbol: "TCS", Qty: 2, Price: 3500, PurchaseDate: "2025-04-10"}})
		expectCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("transactions recompute holding", func(t *testing.T) {
		first, err := api.Call[api.TransactionRequest, api.HoldingResponse](ctx, c, portfolioProc("AddTransaction"),
			&api.TransactionRequest{Transaction: api.Transaction{Bucket: "IND_STOCK", Symbol: "infy", Qty: 4, Price: 90, PurchaseDate: "2025-04-01"}})
		if err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
		if first.Holding == nil || first.Holding.Symbol != "INFY" {
			t.Fatalf("expected INFY holding, got %+v", first.Holding)
		}

		second, err := api.Call[api.TransactionRequest, api.HoldingResponse](ctx, c, portfolioProc("AddTransaction"),
			&api.TransactionRequest{Transaction: api.Transaction{Bucket: "IND_STOCK", Symbol: "INFY", Qty: 6, Price: 110, PurchaseDate: "2025-04-02"}})
		if err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
		if second.Holding.Qty != 10 || second.Holding.AvgCost != 102 {
			t.Errorf("expected 10 @ 102, got %v @ %v", second.Holding.Qty, second.Holding.AvgCost)
		}

		txs, err := api.Call[api.Empty, api.ListTransactionsResponse](ctx, c, portfolioProc("ListTransactions"), &api.Empty{})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		var firstID string
		for _, tx := range txs.Transactions {
			if tx.Symbol == "INFY" && tx.Qty == 4 {
				firstID = tx.ID
			}
		}
		if firstID == "" {
			t.Fatal("first INFY transaction not listed")
		}

		if _, err := api.Call[api.IDRequest, api.Empty](ctx, c, portfolioProc("DeleteTransaction"), &api.IDRequest{ID: firstID}); err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}

		holdings, err := api.Call[api.Empty, api.ListHoldingsResponse](ctx, c, portfolioProc("ListHoldings"), &api.Empty{})
		if err != nil {
			t.Fatalf("ListHoldings failed: %v", err)
		}
		if len(holdings.Holdings) != 1 {
			t.Fatalf("expected 1 holding, got %d", len(holdings.Holdings))
		}
		h := holdings.Holdings[0]
		if h.Qty != 6 || h.AvgCost != 110 {
			t.Errorf("expected 6 @ 110 after delete, got %v @ %v", h.Qty, h.AvgCost)
		}
		if holdings.TotalValue != 660 {
			t.Errorf("expected total value 660, got %v", holdings.TotalValue)
		}
	})

	t.Run("missing transaction", func(t *testing.T) {
		_, err := api.Call[api.IDRequest, api.Empty](ctx, c, portfolioProc("DeleteTransaction"), &api.IDRequest{ID: "nope"})
		expectCode(t, err, connect.CodeNotFound)
	})

	t.Run("no price lookup", func(t *testing.T) {
		_, err := api.Call[api.Empty, api.FXRateResponse](ctx, c, portfolioProc("GetUSDINR"), &api.Empty{})
		expectCode(t, err, connect.CodeUnavailable)
	})
}

func TestMembersAndBorrowedFunds(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := ts.client

	member, err := api.Call[api.AddMemberRequest, api.MemberResponse](ctx, c, ledgerProc("AddMember"), &api.AddMemberRequest{Name: "Ravi"})
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if _, err := api.Call[api.ExpenseRequest, api.ExpenseResponse](ctx, c, ledgerProc("AddExpense"),
		&api.ExpenseRequest{Expense: api.Expense{Date: "2025-04-03", Amount: 1200, Type: "EXPECTED", Category: "NEEDS",
			MemberID: member.Member.ID, MemberDirection: "PAID_FOR_MEMBER"}}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	stmt, err := api.Call[api.IDRequest, api.MemberStatementResponse](ctx, c, ledgerProc("GetMemberStatement"), &api.IDRequest{ID: member.Member.ID})
	if err != nil {
		t.Fatalf("GetMemberStatement failed: %v", err)
	}
	if len(stmt.Entries) != 1 || stmt.Balance.NetBalance != 1200 {
		t.Errorf("expected one entry netting 1200, got %d entries and %v", len(stmt.Entries), stmt.Balance.NetBalance)
	}

	_, err = api.Call[api.TransactionRequest, api.HoldingResponse](ctx, c, portfolioProc("AddTransaction"),
		&api.TransactionRequest{Transaction: api.Transaction{Bucket: "MUTUAL_FUND", Symbol: "PPFAS", Qty: 10, Price: 50, PurchaseDate: "2025-04-04"}})
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	txs, err := api.Call[api.Empty, api.ListTransactionsResponse](ctx, c, portfolioProc("ListTransactions"), &api.Empty{})
	if err != nil || len(txs.Transactions) != 1 {
		t.Fatalf("ListTransactions failed: %v", err)
	}

	fund, err := api.Call[api.BorrowedFundRequest, api.BorrowedFundResponse](ctx, c, ledgerProc("CreateBorrowedFund"),
		&api.BorrowedFundRequest{Fund: api.BorrowedFund{LenderName: "Ravi", MemberID: member.Member.ID, BorrowedAmount: 2000,
			BorrowDate: "2025-04-01", TransactionIDs: []string{txs.Transactions[0].ID}}})
	if err != nil {
		t.Fatalf("CreateBorrowedFund failed: %v", err)
	}
	if fund.Fund.InvestedAmount != 500 || fund.Fund.SurplusAmount != 1500 {
		t.Errorf("expected invested 500 surplus 1500, got %v/%v", fund.Fund.InvestedAmount, fund.Fund.SurplusAmount)
	}
}

func TestCloseMonthJob(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	seedMarch(t, ts.client)

	post := func(token, query string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, ts.url+"/jobs/close-month"+query, nil)
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		return resp
	}

	t.Run("rejects missing token", func(t *testing.T) {
		resp := post("", "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects bad month", func(t *testing.T) {
		resp := post(testJobToken, "?month=march")
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("closes previous month", func(t *testing.T) {
		resp := post(testJobToken, "")
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var out api.CloseMonthJobResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if out.Month != "2025-03" || out.Created != 1 || out.Failed != 0 {
			t.Errorf("unexpected job result: %+v", out)
		}
	})

	t.Run("second run skips", func(t *testing.T) {
		resp := post(testJobToken, "?month=2025-03")
		defer resp.Body.Close()
		var out api.CloseMonthJobResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if out.Skipped != 1 || out.Created != 0 {
			t.Errorf("expected one skipped, got %+v", out)
		}
	})
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"plain error", errors.New("boom"), connect.CodeInternal},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"no lookup", ledger.ErrNoPriceLookup, connect.CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codeOf(tt.err); got != tt.want {
				t.Errorf("codeOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    connect.Code
		message string
	}{
		{"closed period keeps its message", &apperr.ClosedPeriodError{Action: "add income", Year: 2025, Month: 3}, connect.CodeFailedPrecondition, "add income"},
		{"unavailable keeps its message", ledger.ErrNoPriceLookup, connect.CodeUnavailable, "no price lookup configured"},
		{"internal is hidden", errors.New("disk I/O error"), connect.CodeInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fail("Test", "user-1", tt.err)
			var ce *connect.Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected connect error, got %T", err)
			}
			if ce.Code() != tt.code {
				t.Errorf("code = %v, want %v", ce.Code(), tt.code)
			}
			if !strings.Contains(ce.Message(), tt.message) {
				t.Errorf("message %q does not contain %q", ce.Message(), tt.message)
			}
		})
	}
}
