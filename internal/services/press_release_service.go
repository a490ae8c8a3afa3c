package services

import (
	"context"

	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// pressReleaseServiceImpl implements PressReleaseService
type pressReleaseServiceImpl struct {
	repos *repository.Repositories
}

func newPressReleaseService(deps Dependencies) PressReleaseService {
	return &pressReleaseServiceImpl{repos: deps.Repos}
}

func (s *pressReleaseServiceImpl) List(ctx context.Context, filters repository.PressReleaseFilters) ([]models.PressRelease, error) {
	releases, err := s.repos.PressRelease.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if releases == nil {
		releases = []models.PressRelease{}
	}
	return releases, nil
}
