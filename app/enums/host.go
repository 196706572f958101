package enums

import "strings"

// host event names, as the course host logs them
var eventNames = map[EventType]string{
	EventTypeListed: "course_module_instance_list_viewed",
	EventTypeViewed: "course_module_viewed",
}

// RoleFromHost parses a role name sent by the host, case-insensitive.
// "editingteacher" is the host name of teacher.
func RoleFromHost(v string) (Role, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "editingteacher" {
		return RoleTeacher, nil
	}
	return ParseRole(v)
}

// CanGrade reports whether the role holds grading/management rights
func (e Role) CanGrade() bool { return e.value >= RoleTeacher.value }

// EventName returns the host event name of the event type
func (e EventType) EventName() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return e.name
}
