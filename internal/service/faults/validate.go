package faults

import (
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/errs"
	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
)

// Closure dates are entered as DD.MM.YYYY and times as HH:MM.
const (
	DateLayout = "2.1.2006"
	TimeLayout = "15:04"
)

func trimClosure(c repofaults.Closure) repofaults.Closure {
	c.FaultDate = strings.TrimSpace(c.FaultDate)
	c.FaultTime = strings.TrimSpace(c.FaultTime)
	c.ReporterName = strings.TrimSpace(c.ReporterName)
	c.LineInfo = strings.TrimSpace(c.LineInfo)
	c.ClosureFaultInfo = strings.TrimSpace(c.ClosureFaultInfo)
	c.Solution = strings.TrimSpace(c.Solution)
	c.WorkingPersonnel = strings.TrimSpace(c.WorkingPersonnel)
	c.TCDDPersonnel = strings.TrimSpace(c.TCDDPersonnel)
	return c
}

// checkClosureFormats validates the date and time fields that are present.
func checkClosureFormats(c repofaults.Closure) error {
	if c.FaultDate != "" {
		if _, err := time.Parse(DateLayout, c.FaultDate); err != nil {
			return errs.Validation("faultDate must be DD.MM.YYYY, got %q", c.FaultDate)
		}
	}
	if c.FaultTime != "" {
		if _, err := time.Parse(TimeLayout, c.FaultTime); err != nil {
			return errs.Validation("faultTime must be HH:MM, got %q", c.FaultTime)
		}
	}
	return nil
}

// requireClosure enforces what closing a fault needs: a date and a solution.
func requireClosure(c repofaults.Closure) error {
	var missing []string
	if c.FaultDate == "" {
		missing = append(missing, "faultDate")
	}
	if c.Solution == "" {
		missing = append(missing, "solution")
	}
	if len(missing) > 0 {
		return errs.Validation("closing a fault requires %s", strings.Join(missing, " and "))
	}
	return checkClosureFormats(c)
}

// normalizeStatus accepts only the two reachable lifecycle states.
func normalizeStatus(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return "", nil
	case repofaults.StatusOpen, repofaults.StatusClosed:
		return v, nil
	default:
		return "", errs.Validation("unsupported status %q", s)
	}
}
