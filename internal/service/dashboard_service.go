package service

import (
	"context"
	"errors"

	"go-utang-ledger/internal/repository"
)

type DashboardService interface {
	// StoreSummary returns the overview of storeID for one of its members.
	StoreSummary(ctx context.Context, storeID, userID string) (*repository.StoreSummary, error)
}

type dashboardService struct {
	summaryRepo repository.SummaryRepository
	ledger      repository.LedgerRepository
}

func NewDashboardService(summaryRepo repository.SummaryRepository, ledger repository.LedgerRepository) DashboardService {
	return &dashboardService{summaryRepo: summaryRepo, ledger: ledger}
}

func (s *dashboardService) StoreSummary(ctx context.Context, storeID, userID string) (*repository.StoreSummary, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	exists, err := s.ledger.StoreExists(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	if _, err := s.ledger.MemberRole(ctx, storeID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return s.summaryRepo.GetStoreSummary(ctx, storeID)
}
