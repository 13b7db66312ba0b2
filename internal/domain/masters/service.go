package masters

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Service implements the masters catalog on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateCharge(in *ChargeInput) error {
	if strings.TrimSpace(in.ChargeName) == "" {
		return fmt.Errorf("%w: charge name is required", ErrInvalidCharge)
	}
	if in.DefaultRate < 0 {
		return fmt.Errorf("%w: default rate must be a non-negative number", ErrInvalidCharge)
	}
	return nil
}

func (s *Service) checkCategory(ctx context.Context, in *ChargeInput) error {
	if in.CategoryID == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, *in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Service) Charges(ctx context.Context) ([]*ServiceCharge, error) {
	return s.repo.ListCharges(ctx)
}

func (s *Service) Charge(ctx context.Context, id int64) (*ServiceCharge, error) {
	return s.repo.GetCharge(ctx, id)
}

func (s *Service) SearchCharges(ctx context.Context, query string) ([]*ServiceCharge, error) {
	return s.repo.SearchCharges(ctx, query)
}

func (s *Service) CreateCharge(ctx context.Context, in *ChargeInput) (*ServiceCharge, error) {
	if err := validateCharge(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in); err != nil {
		return nil, err
	}
	c, err := s.repo.InsertCharge(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("charge_id", c.ID).Str("charge_name", c.ChargeName).Msg("service charge created")
	return c, nil
}

func (s *Service) UpdateCharge(ctx context.Context, id int64, in *ChargeInput) (*ServiceCharge, error) {
	if err := validateCharge(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in); err != nil {
		return nil, err
	}
	c, err := s.repo.UpdateCharge(ctx, id, in)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("charge_id", c.ID).Str("charge_name", c.ChargeName).Msg("service charge updated")
	return c, nil
}

func (s *Service) DeleteCharge(ctx context.Context, id int64) (*DeletedCharge, error) {
	d, err := s.repo.DeleteCharge(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("charge_id", d.ID).Str("charge_name", d.ChargeName).Msg("service charge deleted")
	return d, nil
}

func (s *Service) Categories(ctx context.Context) ([]*ServiceCategory, error) {
	return s.repo.ListCategories(ctx)
}
