package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Residence values accepted on StudentAttributes.
const (
	ResidenceUrban = "Urban"
	ResidenceRural = "Rural"
)

// Defaults applied to optional attributes.
const (
	DefaultCourse         = "Computer Science"
	DefaultResidence      = ResidenceUrban
	DefaultParentalIncome = 300000.0
	DefaultAge            = 20
)

// StudentAttributes is the raw input to an assessment.
// GPA, Attendance and Failures are required; a nil pointer means "absent".
type StudentAttributes struct {
	Name           string
	StudentID      string
	Course         string
	GPA            *float64
	Attendance     *float64
	Failures       *int
	Residence      string
	ParentalIncome *float64
	Age            *int
}

// MissingFieldError reports a required attribute that was absent or could not be
// coerced to its numeric type.
type MissingFieldError struct {
	Field  string
	Reason string
}

func (e *MissingFieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("missing required field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

func missing(field string) *MissingFieldError {
	return &MissingFieldError{Field: field}
}

func (a StudentAttributes) course() string {
	if a.Course == "" {
		return DefaultCourse
	}
	return a.Course
}

func (a StudentAttributes) residence() string {
	if a.Residence == "" {
		return DefaultResidence
	}
	return a.Residence
}

func (a StudentAttributes) parentalIncome() float64 {
	if a.ParentalIncome == nil {
		return DefaultParentalIncome
	}
	return *a.ParentalIncome
}

func (a StudentAttributes) age() int {
	if a.Age == nil {
		return DefaultAge
	}
	return *a.Age
}

// WithDefaults returns a copy with every optional attribute filled in.
// Required attributes are left as they are.
func (a StudentAttributes) WithDefaults() StudentAttributes {
	income, age := a.parentalIncome(), a.age()
	a.Course = a.course()
	a.Residence = a.residence()
	a.ParentalIncome = &income
	a.Age = &age
	return a
}

// AttributesFromMap builds StudentAttributes from a loosely typed record such as
// decoded JSON, form values or CLI input. Keys use snake_case
// (gpa, attendance, failures, parental_income, student_id, ...).
func AttributesFromMap(raw map[string]any) (StudentAttributes, error) {
	var attrs StudentAttributes

	attrs.Name = stringField(raw, "name")
	attrs.StudentID = stringField(raw, "student_id")
	attrs.Course = stringField(raw, "course")
	attrs.Residence = stringField(raw, "residence")

	gpa, err := requiredFloat(raw, "gpa")
	if err != nil {
		return attrs, err
	}
	attrs.GPA = &gpa

	attendance, err := requiredFloat(raw, "attendance")
	if err != nil {
		return attrs, err
	}
	attrs.Attendance = &attendance

	failures, err := requiredInt(raw, "failures")
	if err != nil {
		return attrs, err
	}
	attrs.Failures = &failures

	if v, ok := present(raw, "parental_income"); ok {
		income, err := toFloat(v)
		if err != nil {
			return attrs, &MissingFieldError{Field: "parental_income", Reason: err.Error()}
		}
		attrs.ParentalIncome = &income
	}

	if v, ok := present(raw, "age"); ok {
		age, err := toInt(v)
		if err != nil {
			return attrs, &MissingFieldError{Field: "age", Reason: err.Error()}
		}
		attrs.Age = &age
	}

	return attrs, nil
}

func present(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func stringField(raw map[string]any, key string) string {
	v, ok := present(raw, key)
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func requiredFloat(raw map[string]any, key string) (float64, error) {
	v, ok := present(raw, key)
	if !ok {
		return 0, missing(key)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, &MissingFieldError{Field: key, Reason: err.Error()}
	}
	return f, nil
}

func requiredInt(raw map[string]any, key string) (int, error) {
	v, ok := present(raw, key)
	if !ok {
		return 0, missing(key)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, &MissingFieldError{Field: key, Reason: err.Error()}
	}
	return n, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

// toInt accepts integral values only; 1.5 failures is rejected rather than truncated.
func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	}

	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int(f), nil
}
