package service_test

import (
	"errors"
	"sync"
	"testing"

	"eloboost/internal/domain"
	"eloboost/internal/models"
	"eloboost/internal/service"
	"eloboost/internal/testutil"
)

func TestRequestPayout(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	adminConn := e.connect(admin)
	testutil.FundWallet(t, e.db, partner.ID, "150")

	p, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("100"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if p.Status != domain.PayoutStatusPending || !p.Amount.Equal(testutil.Dec("100")) {
		t.Fatalf("unexpected payout %+v", p)
	}
	w := testutil.Wallet(t, e.db, partner.ID)
	if !w.Balance.Equal(testutil.Dec("50")) || !w.PendingWithdrawal.Equal(testutil.Dec("100")) {
		t.Fatalf("wallet = balance %s pending %s", w.Balance, w.PendingWithdrawal)
	}
	if got := drain(adminConn); !contains(got, domain.EventPayoutRequested) {
		t.Fatalf("admins not told about the request: %v", got)
	}
}

func TestRequestPayoutRejects(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	client := testutil.CreateUser(t, e.db, "c1", domain.RoleClient)
	testutil.FundWallet(t, e.db, partner.ID, "20")

	_, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(client), testutil.Dec("5"))
	assertKind(t, err, domain.KindForbidden)

	for _, amount := range []string{"0", "-3", "1.001"} {
		_, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec(amount))
		assertKind(t, err, domain.KindValidation)
	}
	_, err = e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("20.01"))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	var payouts int64
	e.db.Model(&models.Payout{}).Count(&payouts)
	w := testutil.Wallet(t, e.db, partner.ID)
	if payouts != 0 || !w.Balance.Equal(testutil.Dec("20")) || !w.PendingWithdrawal.IsZero() {
		t.Fatalf("rejected requests left effects: payouts=%d wallet=%+v", payouts, w)
	}
}

func TestApprovePayout(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	partnerConn := e.connect(partner)
	testutil.FundWallet(t, e.db, partner.ID, "150")
	p, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("100"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	approved, err := e.ledger.ApprovePayout(e.ctx, testutil.Caller(admin), p.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.PayoutStatusApproved || approved.ProcessedBy == nil || *approved.ProcessedBy != admin.ID {
		t.Fatalf("unexpected payout %+v", approved)
	}
	if approved.Transaction == nil || approved.Transaction.Type != domain.TxTypePayout ||
		!approved.Transaction.Amount.Equal(testutil.Dec("-100")) {
		t.Fatalf("unexpected ledger entry %+v", approved.Transaction)
	}
	w := testutil.Wallet(t, e.db, partner.ID)
	if !w.Balance.Equal(testutil.Dec("50")) || !w.PendingWithdrawal.IsZero() || !w.TotalWithdrawn.Equal(testutil.Dec("100")) {
		t.Fatalf("wallet after approve = %+v", w)
	}
	if got := drain(partnerConn); !contains(got, domain.EventNotificationNew) {
		t.Fatalf("partner not notified: %v", got)
	}
}

func TestDeclinePayoutRestoresBalance(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	testutil.FundWallet(t, e.db, partner.ID, "150")
	p, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("100"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	declined, err := e.ledger.DeclinePayout(e.ctx, testutil.Caller(admin), p.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != domain.PayoutStatusDeclined || declined.TransactionID != nil {
		t.Fatalf("unexpected payout %+v", declined)
	}
	w := testutil.Wallet(t, e.db, partner.ID)
	if !w.Balance.Equal(testutil.Dec("150")) || !w.PendingWithdrawal.IsZero() {
		t.Fatalf("wallet after decline = %+v", w)
	}
	var txs int64
	e.db.Model(&models.Transaction{}).Count(&txs)
	if txs != 0 {
		t.Fatalf("decline wrote %d ledger entries", txs)
	}
}

func TestPayoutProcessedOnlyOnce(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	testutil.FundWallet(t, e.db, partner.ID, "150")
	p, _ := e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("100"))
	if _, err := e.ledger.ApprovePayout(e.ctx, testutil.Caller(admin), p.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	before := testutil.Wallet(t, e.db, partner.ID)

	if _, err := e.ledger.ApprovePayout(e.ctx, testutil.Caller(admin), p.ID); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("second approve: expected already processed, got %v", err)
	}
	if _, err := e.ledger.DeclinePayout(e.ctx, testutil.Caller(admin), p.ID); !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("decline after approve: expected already processed, got %v", err)
	}
	after := testutil.Wallet(t, e.db, partner.ID)
	if !after.Balance.Equal(before.Balance) || !after.PendingWithdrawal.Equal(before.PendingWithdrawal) ||
		!after.TotalWithdrawn.Equal(before.TotalWithdrawn) {
		t.Fatalf("rejected processing mutated the wallet: %+v -> %+v", before, after)
	}
	var txs int64
	e.db.Model(&models.Transaction{}).Where("payout_id = ?", p.ID).Count(&txs)
	if txs != 1 {
		t.Fatalf("ledger entries for payout = %d", txs)
	}

	_, err := e.ledger.ApprovePayout(e.ctx, testutil.Caller(partner), p.ID)
	assertKind(t, err, domain.KindForbidden)
	if _, err := e.ledger.ApprovePayout(e.ctx, testutil.Caller(admin), 999); !errors.Is(err, domain.ErrPayoutNotFound) {
		t.Fatalf("expected payout not found, got %v", err)
	}
}

func TestConcurrentPayoutRequestsCannotOverdraw(t *testing.T) {
	e := newEnv(t)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	testutil.FundWallet(t, e.db, partner.ID, "150")

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.ledger.RequestPayout(e.ctx, testutil.Caller(partner), testutil.Dec("100"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrWriteConflict):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d concurrent requests succeeded, want 1", ok)
	}
	w := testutil.Wallet(t, e.db, partner.ID)
	if !w.NonNegative() || !w.Balance.Equal(testutil.Dec("50")) || !w.PendingWithdrawal.Equal(testutil.Dec("100")) {
		t.Fatalf("wallet = %+v", w)
	}
}

func TestListPayoutsScopesByRole(t *testing.T) {
	e := newEnv(t)
	p1 := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	p2 := testutil.CreateUser(t, e.db, "p2", domain.RolePartner)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	client := testutil.CreateUser(t, e.db, "c1", domain.RoleClient)
	for _, p := range []*models.User{p1, p2} {
		testutil.FundWallet(t, e.db, p.ID, "10")
		if _, err := e.ledger.RequestPayout(e.ctx, testutil.Caller(p), testutil.Dec("5")); err != nil {
			t.Fatalf("request: %v", err)
		}
	}

	own, err := e.ledger.ListPayouts(e.ctx, testutil.Caller(p1), "", nil, 0, 0)
	if err != nil || len(own) != 1 || own[0].PartnerID != p1.ID {
		t.Fatalf("partner list = %+v, %v", own, err)
	}
	all, err := e.ledger.ListPayouts(e.ctx, testutil.Caller(admin), domain.PayoutStatusPending, nil, 0, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin list = %d, %v", len(all), err)
	}
	_, err = e.ledger.ListPayouts(e.ctx, testutil.Caller(client), "", nil, 0, 0)
	assertKind(t, err, domain.KindForbidden)
	_, err = e.ledger.ListPayouts(e.ctx, testutil.Caller(admin), "LOST", nil, 0, 0)
	assertKind(t, err, domain.KindValidation)
}

func TestPostTransactions(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.db, "a1", domain.RoleAdmin)
	partner := testutil.CreateUser(t, e.db, "p1", domain.RolePartner)
	boost := "b-1"
	entries := []service.TransactionInput{
		{UserID: partner.ID, Type: domain.TxTypePartnerCommission, Amount: testutil.Dec("32"), BoostID: &boost},
		{UserID: admin.ID, Type: domain.TxTypeFee, Amount: testutil.Dec("8"), BoostID: &boost},
	}
	list, err := e.ledger.PostTransactions(e.ctx, testutil.Caller(admin), entries)
	if err != nil || len(list) != 2 || list[0].ID == 0 {
		t.Fatalf("post = %+v, %v", list, err)
	}
	w := testutil.Wallet(t, e.db, partner.ID)
	if !w.Balance.IsZero() {
		t.Fatalf("posting entries must not move balances, got %s", w.Balance)
	}
	mine, err := e.ledger.ListTransactions(e.ctx, testutil.Caller(partner), 0, 0)
	if err != nil || len(mine) != 1 || mine[0].Type != domain.TxTypePartnerCommission {
		t.Fatalf("partner ledger = %+v, %v", mine, err)
	}

	_, err = e.ledger.PostTransactions(e.ctx, testutil.Caller(admin), []service.TransactionInput{
		{UserID: partner.ID, Type: domain.TxTypePayout, Amount: testutil.Dec("-1")},
	})
	assertKind(t, err, domain.KindValidation)
	_, err = e.ledger.PostTransactions(e.ctx, testutil.Caller(partner), entries)
	assertKind(t, err, domain.KindForbidden)
	if _, err := e.ledger.PostTransactions(e.ctx, domain.SystemCaller(), entries[:1]); err != nil {
		t.Fatalf("system caller post: %v", err)
	}
}
