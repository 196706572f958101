// Package events delivers audit events fired by view and list actions to observers.
// Delivery never fails the action: observer errors and panics are logged and dropped.
package events

import (
	"fmt"
	"time"

	"github.com/jmbouzan/ardora/app/enums"
)

// Event is a single audit event. ObjectID is the activity id, zero for course-level list events.
type Event struct {
	Type     enums.EventType `json:"type"`
	CourseID int64           `json:"course_id"`
	UserID   int64           `json:"user_id"`
	ObjectID int64           `json:"object_id,omitempty"`
	ArdoraID string          `json:"ardora_id,omitempty"`
	Time     time.Time       `json:"time"`
}

// ListViewed makes the course-level "activity list viewed" event
func ListViewed(courseID, userID int64) Event {
	return Event{Type: enums.EventTypeListed, CourseID: courseID, UserID: userID, Time: time.Now()}
}

// InstanceViewed makes the module-level "activity instance viewed" event
func InstanceViewed(activityID, courseID, userID int64, ardoraID string) Event {
	return Event{Type: enums.EventTypeViewed, CourseID: courseID, UserID: userID, ObjectID: activityID,
		ArdoraID: ardoraID, Time: time.Now()}
}

func (e Event) String() string {
	if e.ObjectID == 0 {
		return fmt.Sprintf("%s course:%d user:%d", e.Type.EventName(), e.CourseID, e.UserID)
	}
	return fmt.Sprintf("%s course:%d user:%d activity:%d (%s)", e.Type.EventName(), e.CourseID, e.UserID, e.ObjectID,
		e.ArdoraID)
}
