// Package enums provides type-safe enumerations shared by the store, the tracker and the web layer.
//
// Role and EventType are generated with go-pkgz/enum from the unexported integer types below.
// The generator creates for each of them:
//   - an exported struct type (e.g. Role) with name and value fields
//   - exported values for every constant (e.g. RoleTeacher, EventTypeViewed)
//   - String, MarshalText/UnmarshalText and Scan/Value methods
//   - Parse*, Must*, *Values and *Names functions
//
// JobState is written by hand: clients send and read states as JSON numbers and the store keeps
// the integer code, while generated enums marshal and store their names.
//
// Usage:
//
//	state := enums.JobStateCompleted
//	fmt.Println(state.String()) // "completed"
//
//	role, err := enums.RoleFromHost("editingteacher")
//	if err != nil {
//	    // handle invalid input
//	}
//
// To regenerate after changing the types below:
//
//	go generate ./app/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type role -lower
//go:generate go run github.com/go-pkgz/enum@latest -type eventType -lower

// role is the role of a caller in the course owning an activity.
// Generator input only, use the exported Role.
type role int

const (
	roleStudent role = iota
	roleTeacher
	roleManager
	roleAdmin
)

// eventType is the kind of audit event fired by view and list actions.
// Generator input only, use the exported EventType.
type eventType int

const (
	eventTypeListed eventType = iota
	eventTypeViewed
)
