package risk

// FeatureCount is the length of every vector handed to a scoring capability.
const FeatureCount = 12

// FeatureNames lists the feature columns in the positional order every
// capability was trained on. Changing this order breaks existing models.
var FeatureNames = [FeatureCount]string{
	"Age",
	"Gender",
	"Course_Chosen",
	"Residence_Location",
	"Semester_Average_Grade",
	"Parental_Income_Level",
	"Attendance",
	"Marital_Status",
	"Course_Failures",
	"Financial_Stress",
	"Attendance_Compliance",
	"Rural_Disadvantage",
}

// Gender and Marital_Status are never collected; the trained models only ever
// saw these constants.
const (
	genderConstant        = 1
	maritalStatusConstant = 0
)

// attendanceComplianceThreshold is the attendance percentage at or above which a
// student counts as compliant.
const attendanceComplianceThreshold = 75.0

// courseCodes maps exact course names to model codes. Unknown names use code 1.
var courseCodes = map[string]float64{
	"Computer Science":        1,
	"Engineering":             2,
	"Medicine":                3,
	"Law":                     4,
	"Business Administration": 5,
	"Business":                5,
	"Education":               6,
	"Agriculture":             7,
}

const fallbackCourseCode = 1

// FeatureVector is the fixed-order numeric encoding of a student.
type FeatureVector struct {
	Age                  float64
	Gender               float64
	CourseChosen         float64
	ResidenceLocation    float64
	SemesterAverageGrade float64
	ParentalIncomeLevel  float64
	Attendance           float64
	MaritalStatus        float64
	CourseFailures       float64
	FinancialStress      float64
	AttendanceCompliance float64
	RuralDisadvantage    float64
}

// Values returns the features positionally, in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Age,
		f.Gender,
		f.CourseChosen,
		f.ResidenceLocation,
		f.SemesterAverageGrade,
		f.ParentalIncomeLevel,
		f.Attendance,
		f.MaritalStatus,
		f.CourseFailures,
		f.FinancialStress,
		f.AttendanceCompliance,
		f.RuralDisadvantage,
	}
}

// Map returns the features keyed by column name.
func (f FeatureVector) Map() map[string]float64 {
	values := f.Values()
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = values[i]
	}
	return out
}

// CourseCode returns the model code for a course name.
func CourseCode(course string) float64 {
	if code, ok := courseCodes[course]; ok {
		return code
	}
	return fallbackCourseCode
}

// Encode converts attributes into a FeatureVector. It fails with a
// *MissingFieldError when gpa, attendance or failures is absent.
func Encode(attrs StudentAttributes) (FeatureVector, error) {
	if attrs.GPA == nil {
		return FeatureVector{}, missing("gpa")
	}
	if attrs.Attendance == nil {
		return FeatureVector{}, missing("attendance")
	}
	if attrs.Failures == nil {
		return FeatureVector{}, missing("failures")
	}

	gpa := *attrs.GPA
	attendance := *attrs.Attendance
	income := attrs.parentalIncome()
	rural := boolToFloat(attrs.residence() == ResidenceRural)

	return FeatureVector{
		Age:                  float64(attrs.age()),
		Gender:               genderConstant,
		CourseChosen:         CourseCode(attrs.course()),
		ResidenceLocation:    rural,
		SemesterAverageGrade: gpa * 25,
		ParentalIncomeLevel:  income / 50000,
		Attendance:           attendance,
		MaritalStatus:        maritalStatusConstant,
		CourseFailures:       float64(*attrs.Failures),
		FinancialStress:      income / 200000,
		AttendanceCompliance: boolToFloat(attendance >= attendanceComplianceThreshold),
		RuralDisadvantage:    rural,
	}, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
