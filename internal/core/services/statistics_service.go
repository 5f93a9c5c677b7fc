package services

import (
	"context"

	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"
)

// StatisticsService aggregates catalog, account and loan counts
type StatisticsService struct {
	store repositories.Store
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(store repositories.Store) *StatisticsService {
	return &StatisticsService{store: store}
}

// Get returns the current counts. TotalUsers counts patrons only.
func (s *StatisticsService) Get(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{}
	var err error

	if stats.TotalBooks, err = s.store.Books().Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.store.Accounts().CountByKind(ctx, domain.KindPatron); err != nil {
		return nil, err
	}
	if stats.ActiveLoans, err = s.store.Loans().CountByStatus(ctx, domain.LoanActive); err != nil {
		return nil, err
	}
	if stats.ReturnedLoans, err = s.store.Loans().CountByStatus(ctx, domain.LoanReturned); err != nil {
		return nil, err
	}
	if stats.TotalLoans, err = s.store.Loans().Count(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}
