package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medidesk/hms/internal/domain/consultation"
)

func consultationService() *consultation.Service {
	return consultation.NewService(consultation.NewRepoPG(globalDB.Pool))
}

func TestConsultation_CreateFromQueueEntry(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	createTestPatient(t, ctx, "UH2001", "Asha", "Patil")

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	entry := mustEnqueue(t, ctx, opdService(), "UH2001", docID, vtID, date)

	svc := consultationService()
	diagnosis := "viral fever"
	plan := "rest and fluids, review in 3 days"
	cn, err := svc.Create(ctx, consultation.CreateInput{
		UHID:          "UH2001",
		DoctorID:      docID,
		OPDID:         &entry.ID,
		Diagnosis:     &diagnosis,
		TreatmentPlan: &plan,
	})
	if err != nil {
		t.Fatalf("create consultation: %v", err)
	}

	got, err := svc.GetByID(ctx, cn.ID)
	if err != nil {
		t.Fatalf("get consultation: %v", err)
	}
	if got.PatientName != "Asha Patil" {
		t.Errorf("expected joined patient name, got %q", got.PatientName)
	}
	if got.DoctorName != "Dr. Rao" {
		t.Errorf("expected joined doctor name, got %q", got.DoctorName)
	}
	if got.VisitType != "New Visit" {
		t.Errorf("expected joined visit type, got %q", got.VisitType)
	}
	if got.SerialNo == nil || *got.SerialNo != entry.SerialNo {
		t.Errorf("expected joined serial %d, got %v", entry.SerialNo, got.SerialNo)
	}
	if got.Diagnosis == nil || *got.Diagnosis != diagnosis {
		t.Errorf("expected diagnosis round-trip, got %v", got.Diagnosis)
	}
}

func TestConsultation_SurvivesDequeue(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	createTestPatient(t, ctx, "UH2002", "Ravi", "Kumar")

	docID := doctorID(t, ctx, "Dr. Rao")
	vtID := visitTypeID(t, ctx, "New Visit")
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	opdSvc := opdService()
	entry := mustEnqueue(t, ctx, opdSvc, "UH2002", docID, vtID, date)

	svc := consultationService()
	cn, err := svc.Create(ctx, consultation.CreateInput{
		UHID: "UH2002", DoctorID: docID, OPDID: &entry.ID,
	})
	if err != nil {
		t.Fatalf("create consultation: %v", err)
	}

	if _, err := opdSvc.Dequeue(ctx, entry.ID); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	got, err := svc.GetByID(ctx, cn.ID)
	if err != nil {
		t.Fatalf("get consultation after dequeue: %v", err)
	}
	if got.OPDID != nil {
		t.Errorf("expected opd link severed, got %v", *got.OPDID)
	}
}

func TestConsultation_ListFilters(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	createTestPatient(t, ctx, "UH2003", "Meena", "Iyer")
	createTestPatient(t, ctx, "UH2004", "Sunil", "Shetty")

	rao := doctorID(t, ctx, "Dr. Rao")
	sharma := doctorID(t, ctx, "Dr. Sharma")

	svc := consultationService()
	for _, in := range []consultation.CreateInput{
		{UHID: "UH2003", DoctorID: rao},
		{UHID: "UH2003", DoctorID: sharma},
		{UHID: "UH2004", DoctorID: sharma},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create consultation: %v", err)
		}
	}

	items, total, err := svc.List(ctx, consultation.Filters{DoctorID: &sharma}, 20, 0)
	if err != nil {
		t.Fatalf("list by doctor: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 for doctor filter, got total=%d len=%d", total, len(items))
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	items, total, err = svc.List(ctx, consultation.Filters{Date: &today}, 20, 0)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 for today's date, got %d", total)
	}

	items, total, err = svc.PatientHistory(ctx, "UH2003", 20, 0)
	if err != nil {
		t.Fatalf("patient history: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 in patient history, got %d", total)
	}
	if !items[0].CreatedAt.Before(time.Now().Add(time.Minute)) {
		t.Errorf("unexpected created_at %v", items[0].CreatedAt)
	}
}

func TestConsultation_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	resetTables(t, ctx)
	createTestPatient(t, ctx, "UH2005", "Kiran", "Desai")

	docID := doctorID(t, ctx, "Dr. Rao")
	svc := consultationService()

	diagnosis := "migraine"
	plan := "hydration, dark room"
	cn, err := svc.Create(ctx, consultation.CreateInput{
		UHID: "UH2005", DoctorID: docID,
		Diagnosis: &diagnosis, TreatmentPlan: &plan,
	})
	if err != nil {
		t.Fatalf("create consultation: %v", err)
	}

	followup := "review after one week"
	got, err := svc.Update(ctx, cn.ID, consultation.UpdateInput{FollowupInstructions: &followup})
	if err != nil {
		t.Fatalf("update consultation: %v", err)
	}
	if got.Diagnosis == nil || *got.Diagnosis != diagnosis {
		t.Errorf("expected diagnosis untouched, got %v", got.Diagnosis)
	}
	if got.FollowupInstructions == nil || *got.FollowupInstructions != followup {
		t.Errorf("expected follow-up stored, got %v", got.FollowupInstructions)
	}

	if _, err := svc.Update(ctx, cn.ID, consultation.UpdateInput{}); !errors.Is(err, consultation.ErrNoFields) {
		t.Errorf("expected ErrNoFields, got %v", err)
	}
}
