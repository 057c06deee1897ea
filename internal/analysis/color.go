package analysis

// GradeLabels is the fixed order of grade labels used in distributions.
var GradeLabels = []string{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "E"}

const fallbackColor = "#6c757d"

// GradeColor returns the display color of a grade label.
func GradeColor(grade string) string {
	switch grade {
	case "A", "A-":
		return "#198754"
	case "B+", "B", "B-":
		return "#0dcaf0"
	case "C+", "C", "C-":
		return "#ffc107"
	case "D+", "D":
		return "#fd7e14"
	case "E":
		return "#dc3545"
	default:
		return fallbackColor
	}
}
