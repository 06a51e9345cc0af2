package faults

import (
	"sort"
	"time"

	repofaults "github.com/cuihairu/faultline/internal/repo/gorm/faults"
)

// ClosureTime parses the fault's closure date and time in UTC. A missing or
// unparsable date yields the zero epoch so such faults sort oldest; an
// unparsable time falls back to midnight.
func ClosureTime(c repofaults.Closure) time.Time {
	d, err := time.Parse(DateLayout, c.FaultDate)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	if c.FaultTime != "" {
		if t, err := time.Parse(TimeLayout, c.FaultTime); err == nil {
			d = d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}
	return d
}

// SortHistory orders faults newest closure first. Equal timestamps keep their
// incoming order.
func SortHistory(list []*repofaults.Fault) {
	keys := make(map[*repofaults.Fault]time.Time, len(list))
	for _, f := range list {
		keys[f] = ClosureTime(f.Closure)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return keys[list[i]].After(keys[list[j]])
	})
}
