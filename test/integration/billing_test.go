package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/medidesk/hms/internal/domain/billing"
)

func billingService() *billing.Service {
	return billing.NewService(billing.NewRepoPG(globalDB.Pool))
}

func cashBillInput(uhid string) *billing.CreateInput {
	return &billing.CreateInput{
		UHID:        uhid,
		PatientName: "Asha Patil",
		Category:    "OPD",
		BillType:    billing.TypeCash,
		Items: []billing.ItemInput{
			{ChargeName: "Consultation", Qty: 1, Rate: 300},
			{ChargeName: "Dressing", Qty: 2, Rate: 100},
		},
	}
}

func TestBilling_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	bill, err := svc.CreateBill(ctx, cashBillInput("UH0001"), "operator1")
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if bill.BillNo != 1 {
		t.Errorf("bill no = %d, want 1", bill.BillNo)
	}
	if bill.GrossAmount != 500 || bill.NetAmount != 500 {
		t.Errorf("gross = %v, net = %v", bill.GrossAmount, bill.NetAmount)
	}

	got, err := svc.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("read back %d items, want 2", len(got.Items))
	}
	if got.Items[1].Amount != 200 {
		t.Errorf("item amount = %v, want 200", got.Items[1].Amount)
	}
}

func TestBilling_ConcurrentBillNumbers(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBill(ctx, cashBillInput("UH0001"), "operator1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	// Every bill number is unique and the sequence has no gaps.
	rows, err := globalDB.Pool.Query(ctx, `SELECT bill_no FROM bills ORDER BY bill_no`)
	if err != nil {
		t.Fatalf("query bill numbers: %v", err)
	}
	defer rows.Close()
	var numbers []int64
	for rows.Next() {
		var bn int64
		if err := rows.Scan(&bn); err != nil {
			t.Fatalf("scan: %v", err)
		}
		numbers = append(numbers, bn)
	}
	if len(numbers) != n {
		t.Fatalf("got %d bills, want %d", len(numbers), n)
	}
	for i, bn := range numbers {
		if bn != int64(i+1) {
			t.Fatalf("bill numbers not sequential: %v", numbers)
		}
	}
}

func TestBilling_UpdateReplacesItems(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	bill, err := svc.CreateBill(ctx, cashBillInput("UH0001"), "operator1")
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	updated, err := svc.UpdateBill(ctx, bill.ID, &billing.UpdateInput{
		BillType:       billing.TypeCash,
		DiscountAmount: 50,
		Items: []billing.ItemInput{
			{ChargeName: "X-Ray", Qty: 1, Rate: 250},
		},
	})
	if err != nil {
		t.Fatalf("update bill: %v", err)
	}
	if updated.BillNo != bill.BillNo {
		t.Errorf("bill number changed: %d -> %d", bill.BillNo, updated.BillNo)
	}
	if updated.NetAmount != 200 {
		t.Errorf("net = %v, want 200", updated.NetAmount)
	}

	var count int
	if err := globalDB.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bill_items WHERE bill_id = $1`, bill.ID).Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 1 {
		t.Errorf("stored %d items after update, want 1", count)
	}
}

func TestBilling_CancelIsTerminal(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	bill, err := svc.CreateBill(ctx, cashBillInput("UH0001"), "operator1")
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	reason := "duplicate entry"
	c, err := svc.CancelBill(ctx, bill.ID, "admin1", &reason)
	if err != nil {
		t.Fatalf("cancel bill: %v", err)
	}
	if c.CancelledBy != "admin1" {
		t.Errorf("cancelled by = %q", c.CancelledBy)
	}

	// Cancelled bill stays readable but drops out of lists and rejects writes.
	got, err := svc.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("get cancelled bill: %v", err)
	}
	if !got.Cancelled() {
		t.Error("bill not marked cancelled")
	}
	_, total, err := svc.ListBills(ctx, billing.ListFilters{}, 20, 0)
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	if total != 0 {
		t.Errorf("cancelled bill still listed, total = %d", total)
	}
	if _, err := svc.CancelBill(ctx, bill.ID, "admin1", nil); !errors.Is(err, billing.ErrBillCancelled) {
		t.Errorf("re-cancel: got %v, want ErrBillCancelled", err)
	}
	_, err = svc.UpdateBill(ctx, bill.ID, &billing.UpdateInput{
		BillType: billing.TypeCash,
		Items:    []billing.ItemInput{{ChargeName: "X-Ray", Qty: 1, Rate: 250}},
	})
	if !errors.Is(err, billing.ErrBillCancelled) {
		t.Errorf("update cancelled: got %v, want ErrBillCancelled", err)
	}
}

func TestBilling_SchemeBill(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	in := cashBillInput("UH0001")
	in.BillType = billing.TypeAyushman
	card := "AY-1234"
	in.AyushmanCardNo = &card

	bill, err := svc.CreateBill(ctx, in, "operator1")
	if err != nil {
		t.Fatalf("create scheme bill: %v", err)
	}
	got, err := svc.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if got.AyushmanCardNo == nil || *got.AyushmanCardNo != card {
		t.Errorf("scheme field not persisted: %+v", got.AyushmanCardNo)
	}
}

func TestBilling_UnknownPatient(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := billingService()

	if _, err := svc.CreateBill(ctx, cashBillInput("UH9999"), "operator1"); !errors.Is(err, billing.ErrPatientNotFound) {
		t.Errorf("got %v, want ErrPatientNotFound", err)
	}
}
