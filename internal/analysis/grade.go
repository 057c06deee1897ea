package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// GradeResolver maps numeric scores onto grade bands.
type GradeResolver struct {
	defaultSystem *models.GradingSystem
}

// NewGradeResolver builds a resolver; defaultSystem may be nil when the school has none.
func NewGradeResolver(defaultSystem *models.GradingSystem) *GradeResolver {
	return &GradeResolver{defaultSystem: defaultSystem}
}

// DefaultSystem returns the injected default grading system.
func (r *GradeResolver) DefaultSystem() *models.GradingSystem {
	return r.defaultSystem
}

// Resolve returns the first band of system containing score, bounds inclusive.
// It returns nil when the score is missing, the system is missing or no band matches.
func (r *GradeResolver) Resolve(score *float64, system *models.GradingSystem) *models.GradeScale {
	if score == nil || system == nil {
		return nil
	}
	for i := range system.Scales {
		scale := &system.Scales[i]
		if scale.MinScore <= *score && *score <= scale.MaxScore {
			return scale
		}
	}
	return nil
}

// ResolveAverage rounds avg to a whole number and resolves it against the default system.
func (r *GradeResolver) ResolveAverage(avg float64) *models.GradeScale {
	return r.resolveRounded(avg, r.defaultSystem)
}

// ResolveSubjectAverage is ResolveAverage against the subject's own system,
// falling back to the default one.
func (r *GradeResolver) ResolveSubjectAverage(avg float64, system *models.GradingSystem) *models.GradeScale {
	if system == nil {
		system = r.defaultSystem
	}
	return r.resolveRounded(avg, system)
}

func (r *GradeResolver) resolveRounded(avg float64, system *models.GradingSystem) *models.GradeScale {
	rounded := math.Round(avg)
	return r.Resolve(&rounded, system)
}

// Label returns the grade name or the "-" placeholder.
func Label(scale *models.GradeScale) string {
	if scale == nil {
		return models.Ungraded
	}
	return scale.Name
}

// GradingSystemError lists every problem found in a grading system.
type GradingSystemError struct {
	System string
	Issues []string
}

func (e *GradingSystemError) Error() string {
	return fmt.Sprintf("grading system %q: %s", e.System, strings.Join(e.Issues, "; "))
}

// contiguityTolerance allows integer-valued bands such as 0-39 followed by 40-49.
const contiguityTolerance = 1.0

// ValidateGradingSystem checks that bands are well formed, do not overlap and
// cover [0, 100] without gaps. It returns a *GradingSystemError or nil.
func ValidateGradingSystem(system *models.GradingSystem) error {
	if system == nil {
		return &GradingSystemError{Issues: []string{"grading system missing"}}
	}
	var issues []string
	if len(system.Scales) == 0 {
		issues = append(issues, "no grade scales configured")
	}

	scales := make([]models.GradeScale, len(system.Scales))
	copy(scales, system.Scales)
	for _, scale := range scales {
		if scale.MinScore > scale.MaxScore {
			issues = append(issues, fmt.Sprintf("band %s has min %.2f above max %.2f", scale.Name, scale.MinScore, scale.MaxScore))
		}
		if scale.MinScore < 0 || scale.MaxScore > 100 {
			issues = append(issues, fmt.Sprintf("band %s lies outside 0-100", scale.Name))
		}
	}
	sort.SliceStable(scales, func(i, j int) bool { return scales[i].MinScore < scales[j].MinScore })

	if len(scales) > 0 {
		if scales[0].MinScore > 0 {
			issues = append(issues, fmt.Sprintf("scores below %.2f are not covered", scales[0].MinScore))
		}
		if last := scales[len(scales)-1]; last.MaxScore < 100 {
			issues = append(issues, fmt.Sprintf("scores above %.2f are not covered", last.MaxScore))
		}
	}
	for i := 1; i < len(scales); i++ {
		prev, next := scales[i-1], scales[i]
		switch {
		case next.MinScore <= prev.MaxScore:
			issues = append(issues, fmt.Sprintf("bands %s and %s overlap", prev.Name, next.Name))
		case next.MinScore-prev.MaxScore > contiguityTolerance:
			issues = append(issues, fmt.Sprintf("gap between %s (%.2f) and %s (%.2f)", prev.Name, prev.MaxScore, next.Name, next.MinScore))
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &GradingSystemError{System: system.Name, Issues: issues}
}
