package billing

import (
	"fmt"
	"strings"
)

// ValidationError carries the complete itemized list of input problems so
// the front desk can fix every field in one round trip.
type ValidationError struct {
	Errors []string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// schemeFields maps bill types to the reference field each one requires.
var schemeFields = map[string]struct {
	field string
	get   func(in *CreateInput) *string
}{
	TypeUPI:      {"upi_reference", func(in *CreateInput) *string { return in.UPIReference }},
	TypeAyushman: {"ayushman_card_no", func(in *CreateInput) *string { return in.AyushmanCardNo }},
	TypeECHS:     {"echs_service_no", func(in *CreateInput) *string { return in.ECHSServiceNo }},
}

func validateItems(items []ItemInput, errs []string) []string {
	if len(items) == 0 {
		return append(errs, "at least one bill item is required")
	}
	for i, item := range items {
		n := i + 1
		if strings.TrimSpace(item.ChargeName) == "" {
			errs = append(errs, fmt.Sprintf("item %d: charge name is required", n))
		}
		if item.Rate <= 0 {
			errs = append(errs, fmt.Sprintf("item %d: rate must be a positive number", n))
		}
		if item.Qty < 0 {
			errs = append(errs, fmt.Sprintf("item %d: quantity must be a positive number", n))
		}
	}
	return errs
}

// ValidateCreate checks a CreateInput before any write. Every problem is
// reported, not just the first.
func ValidateCreate(in *CreateInput) error {
	var errs []string

	if strings.TrimSpace(in.UHID) == "" {
		errs = append(errs, "uhid is required")
	}
	if strings.TrimSpace(in.PatientName) == "" {
		errs = append(errs, "patient name is required")
	}
	if !validBillTypes[in.BillType] {
		errs = append(errs, "bill type must be one of: Cash, UPI, Card, Ayushman, TPA, ESIS, ECHS, Golden Card")
	}
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, "category is required")
	}
	if in.DiscountAmount < 0 {
		errs = append(errs, "discount amount must be a non-negative number")
	}

	errs = validateItems(in.Items, errs)

	if scheme, ok := schemeFields[in.BillType]; ok {
		if v := scheme.get(in); v == nil || strings.TrimSpace(*v) == "" {
			errs = append(errs, fmt.Sprintf("%s is required for %s bills", scheme.field, in.BillType))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateUpdate checks an UpdateInput before any write.
func ValidateUpdate(in *UpdateInput) error {
	var errs []string

	if !validBillTypes[in.BillType] {
		errs = append(errs, "bill type must be one of: Cash, UPI, Card, Ayushman, TPA, ESIS, ECHS, Golden Card")
	}
	if in.DiscountAmount < 0 {
		errs = append(errs, "discount amount must be a non-negative number")
	}

	errs = validateItems(in.Items, errs)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
