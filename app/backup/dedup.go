package backup

import (
	"sync"
	"time"
)

// deDup registers courses being archived, so an overrunning scheduled run doesn't archive
// the same course twice at once
type deDup struct {
	active map[int64]time.Time
	lock   sync.Mutex
}

func newDeDup() *deDup {
	return &deDup{active: make(map[int64]time.Time)}
}

// add registers the course, false if already in
func (d *deDup) add(courseID int64) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, found := d.active[courseID]; found {
		return false
	}
	d.active[courseID] = time.Now()
	return true
}

// remove unregisters the course, safe to call multiple times
func (d *deDup) remove(courseID int64) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.active, courseID)
}

// since returns when the course archiving started
func (d *deDup) since(courseID int64) time.Time {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.active[courseID]
}
