package faults

import (
	"time"

	"github.com/cuihairu/faultline/internal/repo/gorm/org"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	"gorm.io/datatypes"
)

// Lifecycle states. in_progress and resolved are reserved and rejected by the service.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Closure describes how, when and by whom a fault was resolved.
// Fields are only populated on the transition to closed.
type Closure struct {
	FaultDate        string `gorm:"column:fault_date;size:16"`
	FaultTime        string `gorm:"column:fault_time;size:8"`
	ReporterName     string `gorm:"column:reporter_name;size:128"`
	LineInfo         string `gorm:"column:line_info;type:text"`
	ClosureFaultInfo string `gorm:"column:closure_fault_info;type:text"`
	Solution         string `gorm:"column:solution;type:text"`
	WorkingPersonnel string `gorm:"column:working_personnel;type:text"`
	TCDDPersonnel    string `gorm:"column:tcdd_personnel;type:text"`
}

// Columns maps each non-empty field to its column. Empty fields are left out so
// an update built from it never overwrites a stored value with blank.
func (c Closure) Columns() map[string]any {
	out := map[string]any{}
	set := func(col, v string) {
		if v != "" {
			out[col] = v
		}
	}
	set("fault_date", c.FaultDate)
	set("fault_time", c.FaultTime)
	set("reporter_name", c.ReporterName)
	set("line_info", c.LineInfo)
	set("closure_fault_info", c.ClosureFaultInfo)
	set("solution", c.Solution)
	set("working_personnel", c.WorkingPersonnel)
	set("tcdd_personnel", c.TCDDPersonnel)
	return out
}

func (c Closure) IsZero() bool { return len(c.Columns()) == 0 }

type Fault struct {
	ID           uint   `gorm:"primaryKey"`
	Title        string `gorm:"size:255;not null"`
	Description  string `gorm:"type:text;not null"`
	Status       string `gorm:"size:16;index;not null;default:open"`
	ReportedByID uint   `gorm:"index;not null"`
	ReportedBy   *usersgorm.UserAccount
	AssignedToID *uint `gorm:"index"`
	AssignedTo   *usersgorm.UserAccount
	ChiefdomID   uint `gorm:"index;not null"`
	Chiefdom     *org.Chiefdom
	Closure      `gorm:"embedded"`
	Images       []Image   `gorm:"foreignKey:FaultID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// Image is a compressed picture attached to exactly one fault.
type Image struct {
	ID        uint   `gorm:"primaryKey"`
	FaultID   uint   `gorm:"index;not null"`
	URL       string `gorm:"size:512;not null"`
	CreatedAt time.Time
}

func (Image) TableName() string { return "fault_images" }

// Activity is one entry of a fault's audit trail.
type Activity struct {
	ID        uint   `gorm:"primaryKey"`
	FaultID   uint   `gorm:"index;not null"`
	ActorID   uint   `gorm:"index"`
	Action    string `gorm:"size:32;not null"`
	Changes   datatypes.JSON
	CreatedAt time.Time
}

func (Activity) TableName() string { return "fault_activities" }

// Filter narrows List; nil pointers and empty Status mean no restriction.
type Filter struct {
	ChiefdomID   *uint
	ReportedByID *uint
	Status       string
}
