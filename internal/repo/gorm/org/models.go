package org

import "time"

// Region is the top-level grouping of projects.
type Region struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project groups chiefdoms and optionally belongs to a region.
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;uniqueIndex;not null"`
	RegionID  *uint  `gorm:"index"`
	Region    *Region
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chiefdom is the maintenance unit faults and workers are assigned to.
type Chiefdom struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;uniqueIndex;not null"`
	ProjectID *uint  `gorm:"index"`
	Project   *Project
	CreatedAt time.Time
	UpdatedAt time.Time
}
