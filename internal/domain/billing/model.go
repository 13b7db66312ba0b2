package billing

import (
	"errors"
	"time"
)

// Bill types. The government-scheme variants carry extra reference fields
// validated in validate.go.
const (
	TypeCash       = "Cash"
	TypeUPI        = "UPI"
	TypeCard       = "Card"
	TypeAyushman   = "Ayushman"
	TypeTPA        = "TPA"
	TypeESIS       = "ESIS"
	TypeECHS       = "ECHS"
	TypeGoldenCard = "Golden Card"
)

var validBillTypes = map[string]bool{
	TypeCash: true, TypeUPI: true, TypeCard: true, TypeAyushman: true,
	TypeTPA: true, TypeESIS: true, TypeECHS: true, TypeGoldenCard: true,
}

var (
	ErrBillNotFound    = errors.New("bill not found")
	ErrBillCancelled   = errors.New("bill is cancelled")
	ErrPatientNotFound = errors.New("patient not found")
	ErrOPDNotFound     = errors.New("opd entry not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// Bill is one billing transaction. Patient name/phone are snapshots taken
// at billing time; later patient edits never rewrite past bills. BillNo is
// the external-facing number: globally unique, monotonically increasing,
// assigned once and never reused.
type Bill struct {
	ID           int64   `json:"id"`
	BillNo       int64   `json:"bill_no"`
	UHID         string  `json:"uhid"`
	PatientName  string  `json:"patient_name"`
	Phone        *string `json:"phone,omitempty"`
	RelationText *string `json:"relation_text,omitempty"`
	OPDID        *int64  `json:"opd_id,omitempty"`
	DoctorID     *int64  `json:"doctor_id,omitempty"`
	Category     string  `json:"category"`
	BillType     string  `json:"bill_type"`

	UPIReference   *string `json:"upi_reference,omitempty"`
	AadhaarNo      *string `json:"aadhaar_no,omitempty"`
	AyushmanCardNo *string `json:"ayushman_card_no,omitempty"`
	RationCardNo   *string `json:"ration_card_no,omitempty"`
	ECHSReferralNo *string `json:"echs_referral_no,omitempty"`
	ECHSServiceNo  *string `json:"echs_service_no,omitempty"`
	ECHSClaimID    *string `json:"echs_claim_id,omitempty"`

	AdmitDate     *time.Time `json:"admit_date,omitempty"`
	DischargeDate *time.Time `json:"discharge_date,omitempty"`

	GrossAmount    float64 `json:"gross_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	NetAmount      float64 `json:"net_amount"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  *string    `json:"cancelled_by,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`

	Items []*BillItem `json:"bill_items,omitempty"`
}

// Cancelled reports whether the bill has been soft-cancelled.
func (b *Bill) Cancelled() bool {
	return b.CancelledAt != nil
}

// BillItem is one charge line. ChargeName and Category are snapshots of
// the service-charge catalog; Amount is always server-computed.
type BillItem struct {
	ID         int64   `json:"id"`
	BillID     int64   `json:"bill_id"`
	ChargeID   *int64  `json:"charge_id,omitempty"`
	ChargeName string  `json:"charge_name"`
	Category   *string `json:"category,omitempty"`
	Qty        int     `json:"qty"`
	Rate       float64 `json:"rate"`
	Amount     float64 `json:"amount"`
}

// ItemInput is the caller-supplied shape of one charge line. Amounts are
// never trusted from the caller; the calculator derives them.
type ItemInput struct {
	ChargeID   *int64  `json:"charge_id,omitempty"`
	ChargeName string  `json:"charge_name"`
	Category   *string `json:"category,omitempty"`
	Qty        int     `json:"qty"`
	Rate       float64 `json:"rate"`
}

// CreateInput is the write shape for raising a bill.
type CreateInput struct {
	UHID         string  `json:"uhid"`
	PatientName  string  `json:"patient_name"`
	Phone        *string `json:"phone,omitempty"`
	RelationText *string `json:"relation_text,omitempty"`
	OPDID        *int64  `json:"opd_id,omitempty"`
	DoctorID     *int64  `json:"doctor_id,omitempty"`
	Category     string  `json:"category"`
	BillType     string  `json:"bill_type"`

	UPIReference   *string `json:"upi_reference,omitempty"`
	AadhaarNo      *string `json:"aadhaar_no,omitempty"`
	AyushmanCardNo *string `json:"ayushman_card_no,omitempty"`
	RationCardNo   *string `json:"ration_card_no,omitempty"`
	ECHSReferralNo *string `json:"echs_referral_no,omitempty"`
	ECHSServiceNo  *string `json:"echs_service_no,omitempty"`
	ECHSClaimID    *string `json:"echs_claim_id,omitempty"`

	AdmitDate     *string `json:"admit_date,omitempty"`
	DischargeDate *string `json:"discharge_date,omitempty"`

	DiscountAmount float64     `json:"discount_amount"`
	Items          []ItemInput `json:"items"`
}

// UpdateInput wholly replaces a bill's item set and mutable header fields.
// Callers resend the complete desired state on every update.
type UpdateInput struct {
	BillType string `json:"bill_type"`

	UPIReference   *string `json:"upi_reference,omitempty"`
	AadhaarNo      *string `json:"aadhaar_no,omitempty"`
	AyushmanCardNo *string `json:"ayushman_card_no,omitempty"`
	RationCardNo   *string `json:"ration_card_no,omitempty"`
	ECHSReferralNo *string `json:"echs_referral_no,omitempty"`
	ECHSServiceNo  *string `json:"echs_service_no,omitempty"`
	ECHSClaimID    *string `json:"echs_claim_id,omitempty"`

	AdmitDate     *string `json:"admit_date,omitempty"`
	DischargeDate *string `json:"discharge_date,omitempty"`

	DiscountAmount float64     `json:"discount_amount"`
	Items          []ItemInput `json:"items"`
}

// Cancellation is the record returned by CancelBill.
type Cancellation struct {
	ID           int64     `json:"id"`
	BillNo       int64     `json:"bill_no"`
	CancelledAt  time.Time `json:"cancelled_at"`
	CancelledBy  string    `json:"cancelled_by"`
	CancelReason *string   `json:"cancel_reason,omitempty"`
}

// ListFilters narrows the active-bill listing.
type ListFilters struct {
	FromDate *time.Time
	ToDate   *time.Time
	// BillType is matched as a substring.
	BillType string
	// Search matches UHID or patient name.
	Search string
}
