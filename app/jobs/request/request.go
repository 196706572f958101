// Package request contains validated input types for job and activity operations
package request

// AddJob contains fields submitted for a new job record. CourseID is optional and only
// disambiguates an ardora id bound in several courses.
type AddJob struct {
	CourseID  int64   `json:"courseid" validate:"gte=0"`
	DataJob   string  `json:"datajob" validate:"required,max=255"`
	Father    string  `json:"father" validate:"max=255"`
	Type      string  `json:"type" validate:"required,max=255"`
	PaqName   string  `json:"paq_name" validate:"max=255"`
	ArdoraID  string  `json:"ardora_id" validate:"required,max=255"`
	Activity  string  `json:"activity" validate:"max=255"`
	HStart    string  `json:"hstart" validate:"max=64"`
	HEnd      string  `json:"hend" validate:"max=64"`
	Attemps   int     `json:"attemps" validate:"gte=0"`
	Points    float64 `json:"points" validate:"gte=0"`
	State     int     `json:"state" validate:"oneof=0 1 2"`
	TypeGrade string  `json:"typegrade" validate:"max=64"`
}

// UpdateJob replaces all fields of an existing job
type UpdateJob struct {
	ID     int64 `json:"id" validate:"required,gt=0"`
	UserID int64 `json:"userid" validate:"required,gt=0"`
	AddJob
}

// DeleteJob identifies jobs to remove, all three keys are mandatory
type DeleteJob struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	DataJob  string `json:"datajob" validate:"required"`
	ArdoraID string `json:"ardora_id" validate:"required"`
}

// Filter is the 4-key tuple scoping job queries. Father and PaqName match exactly, empty included.
type Filter struct {
	Type     string `json:"type" validate:"required"`
	Father   string `json:"father"`
	PaqName  string `json:"paq_name"`
	ArdoraID string `json:"ardora_id" validate:"required"`
}

// Info selects the activity projection, empty Type means all content types
type Info struct {
	Type     string `json:"type"`
	ArdoraID string `json:"ardora_id" validate:"required"`
}

// SaveJob is a job submitted against an activity instance id
type SaveJob struct {
	ActivityID int64   `json:"ardoraid" validate:"required,gt=0"`
	DataJob    string  `json:"datajob" validate:"required,max=255"`
	Father     string  `json:"father" validate:"max=255"`
	Type       string  `json:"type" validate:"required,max=255"`
	PaqName    string  `json:"paq_name" validate:"max=255"`
	Activity   string  `json:"activity" validate:"max=255"`
	HStart     string  `json:"hstart" validate:"max=64"`
	HEnd       string  `json:"hend" validate:"max=64"`
	State      int     `json:"state" validate:"oneof=0 1 2"`
	Attemps    int     `json:"attemps" validate:"gte=0"`
	Points     float64 `json:"points" validate:"gte=0"`
	TypeGrade  string  `json:"typegrade" validate:"max=64"`
}

// AddActivity contains settings of a new activity. Zero GradeMax means the default of 100.
type AddActivity struct {
	Course         int64   `json:"course" validate:"required,gt=0"`
	Name           string  `json:"name" validate:"required,max=255"`
	ArdoraID       string  `json:"ardora_id" validate:"required,max=255"`
	Intro          string  `json:"intro"`
	IntroFormat    int     `json:"introformat" validate:"gte=0"`
	Display        int     `json:"display" validate:"gte=0"`
	DisplayOptions string  `json:"displayoptions"`
	FilterFiles    int     `json:"filterfiles" validate:"gte=0"`
	GradeMax       float64 `json:"grademax" validate:"gte=0"`
}

// UpdateActivity replaces the settings of an existing activity
type UpdateActivity struct {
	ID int64 `json:"id" validate:"required,gt=0"`
	AddActivity
}
