// Package org manages the region > project > chiefdom tree faults are filed against.
package org

import (
	"context"
	"strings"

	"github.com/cuihairu/faultline/internal/errs"
	repoorg "github.com/cuihairu/faultline/internal/repo/gorm/org"
)

type Service struct {
	repo *repoorg.Repo
}

func NewService(repo *repoorg.Repo) *Service { return &Service{repo: repo} }

func cleanName(entity, name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", errs.Validation("%s name is required", entity)
	}
	return n, nil
}

// parent returns nil for absent or zero ids.
func parent(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// Regions

func (s *Service) CreateRegion(ctx context.Context, name string) (*repoorg.Region, error) {
	n, err := cleanName("region", name)
	if err != nil {
		return nil, err
	}
	x := &repoorg.Region{Name: n}
	if err := s.repo.CreateRegion(ctx, x); err != nil {
		return nil, err
	}
	return x, nil
}

func (s *Service) UpdateRegion(ctx context.Context, id uint, name string) (*repoorg.Region, error) {
	n, err := cleanName("region", name)
	if err != nil {
		return nil, err
	}
	x, err := s.repo.GetRegion(ctx, id)
	if err != nil {
		return nil, err
	}
	x.Name = n
	if err := s.repo.UpdateRegion(ctx, x); err != nil {
		return nil, err
	}
	return x, nil
}

func (s *Service) GetRegion(ctx context.Context, id uint) (*repoorg.Region, error) {
	return s.repo.GetRegion(ctx, id)
}
func (s *Service) ListRegions(ctx context.Context) ([]*repoorg.Region, error) {
	return s.repo.ListRegions(ctx)
}
func (s *Service) DeleteRegion(ctx context.Context, id uint) error {
	return s.repo.DeleteRegion(ctx, id)
}

// Projects

func (s *Service) CreateProject(ctx context.Context, name string, regionID *uint) (*repoorg.Project, error) {
	n, err := cleanName("project", name)
	if err != nil {
		return nil, err
	}
	x := &repoorg.Project{Name: n, RegionID: parent(regionID)}
	if x.RegionID != nil {
		if _, err := s.repo.GetRegion(ctx, *x.RegionID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateProject(ctx, x); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, x.ID)
}

func (s *Service) UpdateProject(ctx context.Context, id uint, name string, regionID *uint) (*repoorg.Project, error) {
	n, err := cleanName("project", name)
	if err != nil {
		return nil, err
	}
	x, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	x.Name = n
	x.RegionID = parent(regionID)
	x.Region = nil
	if x.RegionID != nil {
		if _, err := s.repo.GetRegion(ctx, *x.RegionID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateProject(ctx, x); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, id)
}

func (s *Service) GetProject(ctx context.Context, id uint) (*repoorg.Project, error) {
	return s.repo.GetProject(ctx, id)
}
func (s *Service) ListProjects(ctx context.Context, regionID uint) ([]*repoorg.Project, error) {
	return s.repo.ListProjects(ctx, regionID)
}
func (s *Service) DeleteProject(ctx context.Context, id uint) error {
	return s.repo.DeleteProject(ctx, id)
}

// Chiefdoms

func (s *Service) CreateChiefdom(ctx context.Context, name string, projectID *uint) (*repoorg.Chiefdom, error) {
	n, err := cleanName("chiefdom", name)
	if err != nil {
		return nil, err
	}
	x := &repoorg.Chiefdom{Name: n, ProjectID: parent(projectID)}
	if x.ProjectID != nil {
		if _, err := s.repo.GetProject(ctx, *x.ProjectID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.CreateChiefdom(ctx, x); err != nil {
		return nil, err
	}
	return s.repo.GetChiefdom(ctx, x.ID)
}

func (s *Service) UpdateChiefdom(ctx context.Context, id uint, name string, projectID *uint) (*repoorg.Chiefdom, error) {
	n, err := cleanName("chiefdom", name)
	if err != nil {
		return nil, err
	}
	x, err := s.repo.GetChiefdom(ctx, id)
	if err != nil {
		return nil, err
	}
	x.Name = n
	x.ProjectID = parent(projectID)
	x.Project = nil
	if x.ProjectID != nil {
		if _, err := s.repo.GetProject(ctx, *x.ProjectID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateChiefdom(ctx, x); err != nil {
		return nil, err
	}
	return s.repo.GetChiefdom(ctx, id)
}

func (s *Service) GetChiefdom(ctx context.Context, id uint) (*repoorg.Chiefdom, error) {
	return s.repo.GetChiefdom(ctx, id)
}
func (s *Service) ListChiefdoms(ctx context.Context, projectID uint) ([]*repoorg.Chiefdom, error) {
	return s.repo.ListChiefdoms(ctx, projectID)
}
func (s *Service) DeleteChiefdom(ctx context.Context, id uint) error {
	return s.repo.DeleteChiefdom(ctx, id)
}
