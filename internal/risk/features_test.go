package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func demoStudent() StudentAttributes {
	return StudentAttributes{
		Name:           "John Doe",
		StudentID:      "KASU001",
		Course:         "Computer Science",
		GPA:            ptrF(3.2),
		Attendance:     ptrF(85.5),
		Failures:       ptrI(1),
		Residence:      "Urban",
		ParentalIncome: ptrF(450000),
		Age:            ptrI(20),
	}
}

func TestEncode_ReferenceStudent(t *testing.T) {
	fv, err := Encode(demoStudent())
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 1, 1, 0, 80.0, 9.0, 85.5, 0, 1, 2.25, 1, 0}, fv.Values())
}

func TestEncode_FixedOrderAndCount(t *testing.T) {
	fv, err := Encode(demoStudent())
	require.NoError(t, err)

	values := fv.Values()
	require.Len(t, values, FeatureCount)

	m := fv.Map()
	require.Len(t, m, FeatureCount)
	for i, name := range FeatureNames {
		assert.Equal(t, values[i], m[name], name)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode(demoStudent())
	require.NoError(t, err)
	b, err := Encode(demoStudent())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncode_Defaults(t *testing.T) {
	attrs := StudentAttributes{
		GPA:        ptrF(2.0),
		Attendance: ptrF(60),
		Failures:   ptrI(0),
	}

	fv, err := Encode(attrs)
	require.NoError(t, err)

	assert.Equal(t, 20.0, fv.Age)
	assert.Equal(t, 1.0, fv.CourseChosen)
	assert.Equal(t, 0.0, fv.ResidenceLocation)
	assert.Equal(t, 6.0, fv.ParentalIncomeLevel)
	assert.Equal(t, 1.5, fv.FinancialStress)
	assert.Equal(t, 0.0, fv.AttendanceCompliance)
}

func TestEncode_RuralAndCompliance(t *testing.T) {
	attrs := demoStudent()
	attrs.Residence = "Rural"
	attrs.Attendance = ptrF(75)

	fv, err := Encode(attrs)
	require.NoError(t, err)

	assert.Equal(t, 1.0, fv.ResidenceLocation)
	assert.Equal(t, 1.0, fv.RuralDisadvantage)
	assert.Equal(t, 1.0, fv.AttendanceCompliance, "75 is compliant")

	attrs.Attendance = ptrF(74.99)
	fv, err = Encode(attrs)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fv.AttendanceCompliance)
}

func TestEncode_ResidenceIsCaseSensitive(t *testing.T) {
	attrs := demoStudent()
	attrs.Residence = "rural"

	fv, err := Encode(attrs)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fv.ResidenceLocation)
}

func TestCourseCode(t *testing.T) {
	cases := map[string]float64{
		"Computer Science":        1,
		"Engineering":             2,
		"Medicine":                3,
		"Law":                     4,
		"Business Administration": 5,
		"Business":                5,
		"Education":               6,
		"Agriculture":             7,
		"engineering":             1,
		"Philosophy":              1,
		"":                        1,
	}
	for course, want := range cases {
		assert.Equal(t, want, CourseCode(course), course)
	}
}

func TestEncode_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		field string
		strip func(*StudentAttributes)
	}{
		{"gpa", func(a *StudentAttributes) { a.GPA = nil }},
		{"attendance", func(a *StudentAttributes) { a.Attendance = nil }},
		{"failures", func(a *StudentAttributes) { a.Failures = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			attrs := demoStudent()
			tc.strip(&attrs)

			_, err := Encode(attrs)
			require.Error(t, err)

			var mfe *MissingFieldError
			require.True(t, errors.As(err, &mfe))
			assert.Equal(t, tc.field, mfe.Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}
