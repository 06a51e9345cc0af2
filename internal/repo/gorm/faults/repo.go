package faults

import (
	"context"
	"errors"

	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/errs"
	"gorm.io/gorm"
)

// Repo provides GORM-based persistence for faults, their images and audit trail.
type Repo struct{ db *gorm.DB }

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(&Fault{}, &Image{}, &Activity{}) }
func NewRepo(db *gorm.DB) *Repo     { return &Repo{db: db} }

func translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NotFound(entity, id)
	case db.IsForeignKey(err):
		return errs.Validation("%s references a missing chiefdom or user", entity)
	}
	return errs.Internal(err)
}

func (r *Repo) withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Chiefdom").
		Preload("ReportedBy").
		Preload("AssignedTo").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// Create inserts the fault together with its first images and the audit entry.
func (r *Repo) Create(ctx context.Context, f *Fault, imageURLs []string, act *Activity) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Chiefdom", "ReportedBy", "AssignedTo", "Images").Create(f).Error; err != nil {
			return err
		}
		if err := createImages(tx, f.ID, imageURLs); err != nil {
			return err
		}
		return createActivity(tx, f.ID, act)
	})
	return translate(err, "fault", f.Title)
}

func (r *Repo) Get(ctx context.Context, id uint) (*Fault, error) {
	var f Fault
	if err := r.withDetails(r.db.WithContext(ctx)).First(&f, id).Error; err != nil {
		return nil, translate(err, "fault", id)
	}
	return &f, nil
}

// List returns matching faults newest-created first.
func (r *Repo) List(ctx context.Context, f Filter) ([]*Fault, error) {
	q := r.withDetails(r.db.WithContext(ctx)).Order("created_at DESC").Order("id DESC")
	if f.ChiefdomID != nil {
		q = q.Where("chiefdom_id = ?", *f.ChiefdomID)
	}
	if f.ReportedByID != nil {
		q = q.Where("reported_by_id = ?", *f.ReportedByID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	arr := []*Fault{}
	if err := q.Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}

// Update applies a column map, appends images and records the audit entry in one
// transaction. Concurrent updates to the same row are last-write-wins per column.
func (r *Repo) Update(ctx context.Context, id uint, updates map[string]any, imageURLs []string, act *Activity) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Fault{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(updates) > 0 {
			if err := tx.Model(&Fault{ID: id}).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := createImages(tx, id, imageURLs); err != nil {
			return err
		}
		return createActivity(tx, id, act)
	})
	return translate(err, "fault", id)
}

// Delete removes the fault, its image rows and audit trail. onDeleted runs inside the
// transaction with the removed images; returning an error rolls the deletion back.
func (r *Repo) Delete(ctx context.Context, id uint, onDeleted func([]Image) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f Fault
		if err := tx.Select("id").First(&f, id).Error; err != nil {
			return err
		}
		var imgs []Image
		if err := tx.Where("fault_id = ?", id).Order("id ASC").Find(&imgs).Error; err != nil {
			return err
		}
		if err := tx.Where("fault_id = ?", id).Delete(&Image{}).Error; err != nil {
			return err
		}
		if err := tx.Where("fault_id = ?", id).Delete(&Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Fault{}, id).Error; err != nil {
			return err
		}
		if onDeleted != nil {
			return onDeleted(imgs)
		}
		return nil
	})
	return translate(err, "fault", id)
}

func (r *Repo) GetImage(ctx context.Context, id uint) (*Image, error) {
	var img Image
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, translate(err, "image", id)
	}
	return &img, nil
}

// DeleteImage removes one image row; onDeleted runs before commit so a failed file
// removal keeps the record.
func (r *Repo) DeleteImage(ctx context.Context, id uint, act *Activity, onDeleted func(Image) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img Image
		if err := tx.First(&img, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Image{}, id).Error; err != nil {
			return err
		}
		if err := createActivity(tx, img.FaultID, act); err != nil {
			return err
		}
		if onDeleted != nil {
			return onDeleted(img)
		}
		return nil
	})
	return translate(err, "image", id)
}

// ImageURLs lists every stored image url; used to find orphaned files.
func (r *Repo) ImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).Model(&Image{}).Pluck("url", &urls).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return urls, nil
}

func (r *Repo) ListActivity(ctx context.Context, faultID uint) ([]*Activity, error) {
	arr := []*Activity{}
	if err := r.db.WithContext(ctx).Where("fault_id = ?", faultID).Order("id ASC").Find(&arr).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return arr, nil
}

// CheckReferences returns NotFound for the first missing chiefdom or user id. Zero ids are skipped.
func (r *Repo) CheckReferences(ctx context.Context, chiefdomID uint, userIDs ...uint) error {
	if chiefdomID > 0 {
		if err := r.exists(ctx, "chiefdoms", chiefdomID, "chiefdom"); err != nil {
			return err
		}
	}
	for _, id := range userIDs {
		if id == 0 {
			continue
		}
		if err := r.exists(ctx, "users", id, "user"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) exists(ctx context.Context, table string, id uint, entity string) error {
	var n int64
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return errs.Internal(err)
	}
	if n == 0 {
		return errs.NotFound(entity, id)
	}
	return nil
}

func createImages(tx *gorm.DB, faultID uint, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	rows := make([]Image, 0, len(urls))
	for _, u := range urls {
		rows = append(rows, Image{FaultID: faultID, URL: u})
	}
	return tx.Create(&rows).Error
}

func createActivity(tx *gorm.DB, faultID uint, act *Activity) error {
	if act == nil {
		return nil
	}
	act.FaultID = faultID
	return tx.Create(act).Error
}
