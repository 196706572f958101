package enums

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// JobState is the status code of a job record. Stored as its integer value.
type JobState struct {
	name  string
	value int
}

// job states
var (
	JobStateInProgress = JobState{name: "inprogress", value: 0}
	JobStateCompleted  = JobState{name: "completed", value: 1}
	JobStateReviewed   = JobState{name: "reviewed", value: 2}
)

var jobStates = []JobState{JobStateInProgress, JobStateCompleted, JobStateReviewed}

// JobStateValues returns all known job states
func JobStateValues() []JobState { return append([]JobState(nil), jobStates...) }

func (s JobState) String() string { return s.name }

// Index returns the integer code of the state
func (s JobState) Index() int { return s.value }

// Done reports whether the state counts as completed for grading
func (s JobState) Done() bool { return s.value >= JobStateCompleted.value }

// JobStateFromCode returns the state for an integer code
func JobStateFromCode(code int) (JobState, error) {
	for _, s := range jobStates {
		if s.value == code {
			return s, nil
		}
	}
	return JobState{}, fmt.Errorf("invalid job state code %d", code)
}

// ParseJobState parses a state from its name or its integer code
func ParseJobState(v string) (JobState, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if code, err := strconv.Atoi(v); err == nil {
		return JobStateFromCode(code)
	}
	for _, s := range jobStates {
		if s.name == v {
			return s, nil
		}
	}
	return JobState{}, fmt.Errorf("invalid job state %q", v)
}

// MarshalText keeps the numeric code, clients send and read states as numbers
func (s JobState) MarshalText() ([]byte, error) { return []byte(strconv.Itoa(s.value)), nil }

// UnmarshalText accepts either the name or the code
func (s *JobState) UnmarshalText(b []byte) error {
	v, err := ParseJobState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON writes the state as a JSON number
func (s JobState) MarshalJSON() ([]byte, error) { return []byte(strconv.Itoa(s.value)), nil }

// UnmarshalJSON accepts a JSON number or a quoted name/code
func (s *JobState) UnmarshalJSON(b []byte) error {
	return s.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// Value implements driver.Valuer
func (s JobState) Value() (driver.Value, error) { return int64(s.value), nil }

// Scan implements sql.Scanner
func (s *JobState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = JobStateInProgress
		return nil
	case int64:
		st, err := JobStateFromCode(int(v))
		if err != nil {
			return err
		}
		*s = st
		return nil
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	}
	return fmt.Errorf("can't scan %T into JobState", src)
}
