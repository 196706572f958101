//go:generate go run ./internal/schema archive-schema.json

package backup

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the archive format written by Encode and accepted by Decode
const FormatVersion = 1

// ErrBadArchive is returned for archives which can't be restored
var ErrBadArchive = errors.New("bad archive")

// Archive is a portable copy of a course's activities, optionally with learner jobs
type Archive struct {
	ID           string     `yaml:"id" json:"id" jsonschema:"required,description=archive id (uuid)"`
	Version      int        `yaml:"version" json:"version" jsonschema:"required,enum=1,description=archive format version"`
	Created      time.Time  `yaml:"created" json:"created" jsonschema:"required"`
	SourceCourse int64      `yaml:"source_course" json:"source_course" jsonschema:"required,minimum=1"`
	WithJobs     bool       `yaml:"with_jobs" json:"with_jobs" jsonschema:"description=jobs included"`
	Activities   []Activity `yaml:"activities" json:"activities"`
}

// Activity is an archived activity definition
type Activity struct {
	Name            string  `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	ArdoraID        string  `yaml:"ardora_id" json:"ardora_id" jsonschema:"required,minLength=1"`
	Intro           string  `yaml:"intro,omitempty" json:"intro,omitempty"`
	IntroFormat     int     `yaml:"introformat,omitempty" json:"introformat,omitempty"`
	ToBeMigrated    int     `yaml:"tobemigrated,omitempty" json:"tobemigrated,omitempty"`
	LegacyFiles     int     `yaml:"legacyfiles,omitempty" json:"legacyfiles,omitempty"`
	LegacyFilesLast *int64  `yaml:"legacyfileslast,omitempty" json:"legacyfileslast,omitempty"`
	Display         int     `yaml:"display,omitempty" json:"display,omitempty"`
	DisplayOptions  string  `yaml:"displayoptions,omitempty" json:"displayoptions,omitempty"`
	FilterFiles     int     `yaml:"filterfiles,omitempty" json:"filterfiles,omitempty"`
	Revision        int     `yaml:"revision" json:"revision"`
	GradeMax        float64 `yaml:"grademax" json:"grademax" jsonschema:"minimum=0"`
	TimeModified    int64   `yaml:"timemodified" json:"timemodified"`
	Jobs            []Job   `yaml:"jobs,omitempty" json:"jobs,omitempty"`
}

// Job is an archived job record, bound to the ardora id of its activity
type Job struct {
	UserID    int64   `yaml:"userid" json:"userid" jsonschema:"required,minimum=1"`
	DataJob   string  `yaml:"datajob" json:"datajob" jsonschema:"required,minLength=1"`
	Father    string  `yaml:"father" json:"father"`
	Type      string  `yaml:"type" json:"type"`
	PaqName   string  `yaml:"paq_name" json:"paq_name"`
	Activity  string  `yaml:"activity" json:"activity"`
	HStart    string  `yaml:"hstart,omitempty" json:"hstart,omitempty"`
	HEnd      string  `yaml:"hend,omitempty" json:"hend,omitempty"`
	Attemps   int     `yaml:"attemps" json:"attemps" jsonschema:"minimum=0"`
	Points    float64 `yaml:"points" json:"points" jsonschema:"minimum=0"`
	State     int     `yaml:"state" json:"state" jsonschema:"enum=0,enum=1,enum=2"`
	TypeGrade string  `yaml:"typegrade,omitempty" json:"typegrade,omitempty"`
}

// Encode writes the archive as YAML
func Encode(w io.Writer, a Archive) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML archive, unknown fields and other format versions are rejected
func Decode(r io.Reader) (Archive, error) {
	var a Archive
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return Archive{}, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	if a.Version != FormatVersion {
		return Archive{}, fmt.Errorf("%w: unsupported version %d", ErrBadArchive, a.Version)
	}
	return a, nil
}

// Schema generates JSON schema of the archive format
func Schema() *jsonschema.Schema {
	schema := jsonschema.Reflect(&Archive{})
	schema.Title = "Ardora Course Archive"
	schema.Description = "Schema for course backup archives with activities and optional learner jobs"
	return schema
}
