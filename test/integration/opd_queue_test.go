package integration

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/medidesk/hms/internal/domain/opd"
)

func opdService() *opd.Service {
	return opd.NewService(opd.NewRepoPG(globalDB.Pool))
}

func mustEnqueue(t *testing.T, ctx context.Context, svc *opd.Service, uhid string, docID, vtID int64, date time.Time) *opd.QueueEntry {
	t.Helper()
	entry, err := svc.Enqueue(ctx, opd.EnqueueInput{
		UHID:        uhid,
		DoctorID:    docID,
		VisitTypeID: vtID,
		VisitDate:   date,
	})
	if err != nil {
		t.Fatalf("enqueue %s: %v", uhid, err)
	}
	return entry
}

func groupSerials(t *testing.T, ctx context.Context, docID int64, date time.Time) []int {
	t.Helper()
	rows, err := globalDB.Pool.Query(ctx,
		`SELECT serial_no FROM opd_queue WHERE doctor_id = $1 AND visit_date = $2 ORDER BY serial_no`,
		docID, date)
	if err != nil {
		t.Fatalf("query serials: %v", err)
	}
	defer rows.Close()
	var serials []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("scan serial: %v", err)
		}
		serials = append(serials, s)
	}
	return serials
}

func assertDense(t *testing.T, serials []int) {
	t.Helper()
	sort.Ints(serials)
	for i, s := range serials {
		if s != i+1 {
			t.Fatalf("serials not dense: %v", serials)
		}
	}
}

func TestOPDQueue_SerialAssignment(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := opdService()

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")
	createTestPatient(t, ctx, "UH0002", "Ravi", "Kumar")

	first := mustEnqueue(t, ctx, svc, "UH0001", docID, vtID, date)
	second := mustEnqueue(t, ctx, svc, "UH0002", docID, vtID, date)

	if first.SerialNo != 1 || second.SerialNo != 2 {
		t.Errorf("serials = %d, %d, want 1, 2", first.SerialNo, second.SerialNo)
	}
	if first.VisitAmount != 300 {
		t.Errorf("visit amount snapshot = %v, want 300", first.VisitAmount)
	}

	// A different doctor starts an independent sequence.
	otherDoc := doctorID(t, ctx, "Dr. Sharma")
	other := mustEnqueue(t, ctx, svc, "UH0001", otherDoc, vtID, date)
	if other.SerialNo != 1 {
		t.Errorf("other doctor serial = %d, want 1", other.SerialNo)
	}
}

func TestOPDQueue_ConcurrentEnqueues(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := opdService()

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enqueue(ctx, opd.EnqueueInput{
				UHID:        "UH0001",
				DoctorID:    docID,
				VisitTypeID: vtID,
				VisitDate:   date,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent enqueue: %v", err)
		}
	}

	serials := groupSerials(t, ctx, docID, date)
	if len(serials) != n {
		t.Fatalf("got %d entries, want %d", len(serials), n)
	}
	assertDense(t, serials)
}

func TestOPDQueue_DequeueRenumbers(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := opdService()

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	var entries []*opd.QueueEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, mustEnqueue(t, ctx, svc, "UH0001", docID, vtID, date))
	}

	// Remove the middle entry; the tail closes the gap.
	deleted, err := svc.Dequeue(ctx, entries[2].ID)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if deleted.SerialNo != 3 {
		t.Errorf("deleted serial = %d, want 3", deleted.SerialNo)
	}

	serials := groupSerials(t, ctx, docID, date)
	if len(serials) != 4 {
		t.Fatalf("got %d entries after dequeue, want 4", len(serials))
	}
	assertDense(t, serials)

	// The next enqueue extends the dense sequence.
	next := mustEnqueue(t, ctx, svc, "UH0001", docID, vtID, date)
	if next.SerialNo != 5 {
		t.Errorf("serial after renumber = %d, want 5", next.SerialNo)
	}
}

func TestOPDQueue_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := opdService()

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "Follow Up")
	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")

	entry := mustEnqueue(t, ctx, svc, "UH0001", docID, vtID, date)
	if entry.Status != opd.StatusWaiting {
		t.Fatalf("initial status = %s, want WAITING", entry.Status)
	}

	updated, err := svc.SetStatus(ctx, entry.ID, "in-progress")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != opd.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", updated.Status)
	}

	if _, err := svc.SetStatus(ctx, entry.ID, "no-show"); !errors.Is(err, opd.ErrInvalidStatus) {
		t.Errorf("invalid status: got %v, want ErrInvalidStatus", err)
	}
}

func TestOPDQueue_ListJoinsPatientAndDoctor(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	svc := opdService()

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	createTestPatient(t, ctx, "UH0001", "Asha", "Patil")
	mustEnqueue(t, ctx, svc, "UH0001", docID, vtID, date)

	items, total, err := svc.Queue(ctx, opd.QueueFilters{VisitDate: &date}, 20, 0)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total = %d, len = %d, want 1, 1", total, len(items))
	}
	if items[0].PatientName != "Asha Patil" {
		t.Errorf("patient name = %q, want joined full name", items[0].PatientName)
	}
	if items[0].DoctorName != "Dr. Rao" {
		t.Errorf("doctor name = %q", items[0].DoctorName)
	}
}
