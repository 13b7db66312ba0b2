package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Service implements the billing ledger on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func parseDate(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", field)}}
	}
	return &t, nil
}

func buildItems(billID int64, inputs []ItemInput) []*BillItem {
	items := make([]*BillItem, 0, len(inputs))
	for _, in := range inputs {
		qty := in.Qty
		if qty <= 0 {
			qty = 1
		}
		items = append(items, &BillItem{
			BillID:     billID,
			ChargeID:   in.ChargeID,
			ChargeName: in.ChargeName,
			Category:   in.Category,
			Qty:        qty,
			Rate:       in.Rate,
			Amount:     ItemAmount(in.Qty, in.Rate),
		})
	}
	return items
}

// CreateBill validates the input, checks its references, assigns the next
// bill number under a lock, and writes the header plus all items in one
// transaction.
func (s *Service) CreateBill(ctx context.Context, in *CreateInput, createdBy string) (*Bill, error) {
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}

	ok, err := s.repo.PatientExists(ctx, in.UHID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	if in.OPDID != nil {
		ok, err := s.repo.OPDExists(ctx, *in.OPDID)
		if err != nil {
			return nil, fmt.Errorf("check opd entry: %w", err)
		}
		if !ok {
			return nil, ErrOPDNotFound
		}
	}
	if in.DoctorID != nil {
		ok, err := s.repo.DoctorExists(ctx, *in.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("check doctor: %w", err)
		}
		if !ok {
			return nil, ErrDoctorNotFound
		}
	}

	admitDate, err := parseDate(in.AdmitDate, "admit_date")
	if err != nil {
		return nil, err
	}
	dischargeDate, err := parseDate(in.DischargeDate, "discharge_date")
	if err != nil {
		return nil, err
	}

	gross, discount, net := Totals(in.Items, in.DiscountAmount)

	bill := &Bill{
		UHID:           in.UHID,
		PatientName:    in.PatientName,
		Phone:          in.Phone,
		RelationText:   in.RelationText,
		OPDID:          in.OPDID,
		DoctorID:       in.DoctorID,
		Category:       in.Category,
		BillType:       in.BillType,
		UPIReference:   in.UPIReference,
		AadhaarNo:      in.AadhaarNo,
		AyushmanCardNo: in.AyushmanCardNo,
		RationCardNo:   in.RationCardNo,
		ECHSReferralNo: in.ECHSReferralNo,
		ECHSServiceNo:  in.ECHSServiceNo,
		ECHSClaimID:    in.ECHSClaimID,
		AdmitDate:      admitDate,
		DischargeDate:  dischargeDate,
		GrossAmount:    gross,
		DiscountAmount: discount,
		NetAmount:      net,
		CreatedBy:      createdBy,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockBillNumbers(ctx); err != nil {
			return fmt.Errorf("lock bill numbers: %w", err)
		}
		billNo, err := s.repo.NextBillNumber(ctx)
		if err != nil {
			return fmt.Errorf("next bill number: %w", err)
		}
		bill.BillNo = billNo

		if err := s.repo.InsertBill(ctx, bill); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		bill.Items = buildItems(bill.ID, in.Items)
		for _, item := range bill.Items {
			if err := s.repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("bill_id", bill.ID).
		Int64("bill_no", bill.BillNo).
		Str("uhid", bill.UHID).
		Float64("net_amount", bill.NetAmount).
		Str("created_by", createdBy).
		Msg("bill created")

	return bill, nil
}

// UpdateBill replaces the bill's mutable header fields and its entire item
// set. Totals are recomputed from the new items; the bill number never
// changes. Cancelled bills cannot be updated.
func (s *Service) UpdateBill(ctx context.Context, id int64, in *UpdateInput) (*Bill, error) {
	if err := ValidateUpdate(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Cancelled() {
		return nil, ErrBillCancelled
	}

	admitDate, err := parseDate(in.AdmitDate, "admit_date")
	if err != nil {
		return nil, err
	}
	dischargeDate, err := parseDate(in.DischargeDate, "discharge_date")
	if err != nil {
		return nil, err
	}

	gross, discount, net := Totals(in.Items, in.DiscountAmount)

	bill := *current
	bill.BillType = in.BillType
	bill.UPIReference = in.UPIReference
	bill.AadhaarNo = in.AadhaarNo
	bill.AyushmanCardNo = in.AyushmanCardNo
	bill.RationCardNo = in.RationCardNo
	bill.ECHSReferralNo = in.ECHSReferralNo
	bill.ECHSServiceNo = in.ECHSServiceNo
	bill.ECHSClaimID = in.ECHSClaimID
	bill.AdmitDate = admitDate
	bill.DischargeDate = dischargeDate
	bill.GrossAmount = gross
	bill.DiscountAmount = discount
	bill.NetAmount = net

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateBill(ctx, &bill); err != nil {
			return err
		}
		if err := s.repo.DeleteItems(ctx, id); err != nil {
			return fmt.Errorf("delete bill items: %w", err)
		}
		bill.Items = buildItems(id, in.Items)
		for _, item := range bill.Items {
			if err := s.repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("bill_id", bill.ID).
		Int64("bill_no", bill.BillNo).
		Float64("net_amount", bill.NetAmount).
		Msg("bill updated")

	return &bill, nil
}

// CancelBill soft-cancels a bill. The bill and its items stay readable;
// cancelling twice reports ErrBillCancelled.
func (s *Service) CancelBill(ctx context.Context, id int64, cancelledBy string, reason *string) (*Cancellation, error) {
	c, err := s.repo.Cancel(ctx, id, cancelledBy, reason)
	if err == ErrBillNotFound {
		// Distinguish a missing bill from one already cancelled.
		if bill, getErr := s.repo.GetByID(ctx, id); getErr == nil && bill.Cancelled() {
			return nil, ErrBillCancelled
		}
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("bill_id", c.ID).
		Int64("bill_no", c.BillNo).
		Str("cancelled_by", cancelledBy).
		Msg("bill cancelled")

	return c, nil
}

// GetBill returns a bill with its items. Cancelled bills are returned too,
// with their cancellation fields set.
func (s *Service) GetBill(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBills returns active bills, newest first.
func (s *Service) ListBills(ctx context.Context, f ListFilters, limit, offset int) ([]*Bill, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// PatientBills returns a patient's active bills, newest first.
func (s *Service) PatientBills(ctx context.Context, uhid string, limit, offset int) ([]*Bill, int, error) {
	return s.repo.ListByPatient(ctx, uhid, limit, offset)
}
