package org

import (
	"context"
	"errors"

	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/errs"
	"gorm.io/gorm"
)

// Repo provides GORM-based persistence for the region > project > chiefdom tree.
type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&Region{}, &Project{}, &Chiefdom{}) }
func NewRepo(db *gorm.DB) *Repo     { return &Repo{db: db} }

func translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound(entity, id)
	case db.IsDuplicate(err):
		return errs.Conflict("%s name already exists", entity)
	case db.IsForeignKey(err):
		return errs.Validation("%s references a missing parent", entity)
	}
	return errs.Internal(err)
}

func (r *Repo) count(ctx context.Context, table, column string, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(table).Where(column+" = ?", id).Count(&n).Error
	return n, err
}

// Regions
func (r *Repo) CreateRegion(ctx context.Context, x *Region) error {
	return translate(r.db.WithContext(ctx).Create(x).Error, "region", x.Name)
}
func (r *Repo) UpdateRegion(ctx context.Context, x *Region) error {
	return translate(r.db.WithContext(ctx).Save(x).Error, "region", x.ID)
}
func (r *Repo) GetRegion(ctx context.Context, id uint) (*Region, error) {
	var x Region
	if err := r.db.WithContext(ctx).First(&x, id).Error; err != nil {
		return nil, translate(err, "region", id)
	}
	return &x, nil
}
func (r *Repo) ListRegions(ctx context.Context) ([]*Region, error) {
	var arr []*Region
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}
func (r *Repo) DeleteRegion(ctx context.Context, id uint) error {
	if _, err := r.GetRegion(ctx, id); err != nil {
		return err
	}
	n, err := r.count(ctx, "projects", "region_id", id)
	if err != nil {
		return errs.Internal(err)
	}
	if n > 0 {
		return errs.HasDependents("region", id, "projects")
	}
	return translate(r.db.WithContext(ctx).Delete(&Region{}, id).Error, "region", id)
}

// Projects
func (r *Repo) CreateProject(ctx context.Context, x *Project) error {
	return translate(r.db.WithContext(ctx).Omit("Region").Create(x).Error, "project", x.Name)
}
func (r *Repo) UpdateProject(ctx context.Context, x *Project) error {
	return translate(r.db.WithContext(ctx).Omit("Region").Save(x).Error, "project", x.ID)
}
func (r *Repo) GetProject(ctx context.Context, id uint) (*Project, error) {
	var x Project
	if err := r.db.WithContext(ctx).Preload("Region").First(&x, id).Error; err != nil {
		return nil, translate(err, "project", id)
	}
	return &x, nil
}
func (r *Repo) ListProjects(ctx context.Context, regionID uint) ([]*Project, error) {
	q := r.db.WithContext(ctx).Preload("Region").Order("name ASC")
	if regionID > 0 {
		q = q.Where("region_id = ?", regionID)
	}
	var arr []*Project
	if err := q.Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}
func (r *Repo) DeleteProject(ctx context.Context, id uint) error {
	if _, err := r.GetProject(ctx, id); err != nil {
		return err
	}
	n, err := r.count(ctx, "chiefdoms", "project_id", id)
	if err != nil {
		return errs.Internal(err)
	}
	if n > 0 {
		return errs.HasDependents("project", id, "chiefdoms")
	}
	return translate(r.db.WithContext(ctx).Delete(&Project{}, id).Error, "project", id)
}

// Chiefdoms
func (r *Repo) CreateChiefdom(ctx context.Context, x *Chiefdom) error {
	return translate(r.db.WithContext(ctx).Omit("Project").Create(x).Error, "chiefdom", x.Name)
}
func (r *Repo) UpdateChiefdom(ctx context.Context, x *Chiefdom) error {
	return translate(r.db.WithContext(ctx).Omit("Project").Save(x).Error, "chiefdom", x.ID)
}
func (r *Repo) GetChiefdom(ctx context.Context, id uint) (*Chiefdom, error) {
	var x Chiefdom
	if err := r.db.WithContext(ctx).Preload("Project.Region").First(&x, id).Error; err != nil {
		return nil, translate(err, "chiefdom", id)
	}
	return &x, nil
}
func (r *Repo) ListChiefdoms(ctx context.Context, projectID uint) ([]*Chiefdom, error) {
	q := r.db.WithContext(ctx).Preload("Project.Region").Order("name ASC")
	if projectID > 0 {
		q = q.Where("project_id = ?", projectID)
	}
	var arr []*Chiefdom
	if err := q.Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}

// DeleteChiefdom refuses while workers or faults still point at the chiefdom.
func (r *Repo) DeleteChiefdom(ctx context.Context, id uint) error {
	if _, err := r.GetChiefdom(ctx, id); err != nil {
		return err
	}
	for _, dep := range []string{"users", "faults"} {
		n, err := r.count(ctx, dep, "chiefdom_id", id)
		if err != nil {
			return errs.Internal(err)
		}
		if n > 0 {
			return errs.HasDependents("chiefdom", id, dep)
		}
	}
	return translate(r.db.WithContext(ctx).Delete(&Chiefdom{}, id).Error, "chiefdom", id)
}
