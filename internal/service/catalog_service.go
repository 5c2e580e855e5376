package service

import (
	"context"
	"errors"
	"strings"

	"smartturf/internal/domain"
	"smartturf/internal/models"
)

var ErrInvalidCatalogEntry = errors.New("name, location and a positive price are required")

// CatalogService serves the turf/kit listings. The catalog is referenced,
// never mutated, by the booking core; creation lives here for operators.
type CatalogService struct {
	repo domain.Repository
}

func NewCatalogService(repo domain.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetTurfs(ctx context.Context) ([]*models.Turf, error) {
	return s.repo.GetTurfs(ctx)
}

func (s *CatalogService) GetTurf(ctx context.Context, id int64) (*models.Turf, error) {
	return s.repo.GetTurf(ctx, id)
}

func (s *CatalogService) CreateTurf(ctx context.Context, turf *models.Turf) error {
	if strings.TrimSpace(turf.Name) == "" || strings.TrimSpace(turf.Location) == "" || turf.PricePerHour <= 0 {
		return ErrInvalidCatalogEntry
	}
	return s.repo.CreateTurf(ctx, turf)
}

func (s *CatalogService) GetAvailableKits(ctx context.Context) ([]*models.Kit, error) {
	return s.repo.GetAvailableKits(ctx)
}

func (s *CatalogService) CreateKit(ctx context.Context, kit *models.Kit) error {
	if strings.TrimSpace(kit.Name) == "" || kit.PricePerHour <= 0 {
		return ErrInvalidCatalogEntry
	}
	kit.Available = true
	return s.repo.CreateKit(ctx, kit)
}
