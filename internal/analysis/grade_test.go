package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

func TestResolveBandBoundsAreInclusive(t *testing.T) {
	system := testGradingSystem()
	resolver := NewGradeResolver(system)

	for _, tc := range []struct {
		score float64
		want  string
	}{
		{80, "A"},
		{100, "A"},
		{79, "B"},
		{60, "B"},
		{39, "E"},
		{0, "E"},
	} {
		assert.Equal(t, tc.want, Label(resolver.Resolve(score(tc.score), system)), "score %v", tc.score)
	}
}

func TestResolveUngraded(t *testing.T) {
	system := testGradingSystem()
	resolver := NewGradeResolver(system)

	assert.Nil(t, resolver.Resolve(score(79.5), system), "no band holds fractional gap values")
	assert.Nil(t, resolver.Resolve(score(101), system))
	assert.Nil(t, resolver.Resolve(nil, system))
	assert.Nil(t, resolver.Resolve(score(50), nil))
	assert.Equal(t, models.Ungraded, Label(nil))
}

func TestResolveFirstMatchingBandWins(t *testing.T) {
	system := &models.GradingSystem{Scales: []models.GradeScale{
		{Name: "X", MinScore: 50, MaxScore: 70},
		{Name: "Y", MinScore: 60, MaxScore: 80},
	}}
	got := NewGradeResolver(nil).Resolve(score(65), system)
	require.NotNil(t, got)
	assert.Equal(t, "X", got.Name)
}

func TestResolveAverageRoundsToWholeNumber(t *testing.T) {
	resolver := NewGradeResolver(testGradingSystem())

	assert.Equal(t, "A", Label(resolver.ResolveAverage(79.5)))
	assert.Equal(t, "B", Label(resolver.ResolveAverage(79.49)))
	assert.Equal(t, models.Ungraded, Label(NewGradeResolver(nil).ResolveAverage(90)))
}

func TestResolveSubjectAverageFallsBackToDefault(t *testing.T) {
	resolver := NewGradeResolver(testGradingSystem())
	own := &models.GradingSystem{Scales: []models.GradeScale{{Name: "P", MinScore: 0, MaxScore: 100}}}

	assert.Equal(t, "P", Label(resolver.ResolveSubjectAverage(55, own)))
	assert.Equal(t, "C", Label(resolver.ResolveSubjectAverage(55, nil)))
}

func TestValidateGradingSystem(t *testing.T) {
	require.NoError(t, ValidateGradingSystem(testGradingSystem()))

	broken := &models.GradingSystem{Name: "broken", Scales: []models.GradeScale{
		{Name: "A", MinScore: 75, MaxScore: 100},
		{Name: "B", MinScore: 60, MaxScore: 76},
		{Name: "C", MinScore: 10, MaxScore: 50},
	}}
	err := ValidateGradingSystem(broken)
	require.Error(t, err)

	var gsErr *GradingSystemError
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "broken", gsErr.System)
	assert.Len(t, gsErr.Issues, 3)
	assert.Contains(t, err.Error(), "overlap")
	assert.Contains(t, err.Error(), "gap")
	assert.Contains(t, err.Error(), "below 10.00")
}

func TestValidateGradingSystemRejectsInvertedBands(t *testing.T) {
	err := ValidateGradingSystem(&models.GradingSystem{Scales: []models.GradeScale{
		{Name: "A", MinScore: 100, MaxScore: 0},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "above max")

	require.Error(t, ValidateGradingSystem(nil))
	require.Error(t, ValidateGradingSystem(&models.GradingSystem{}))
}

func FuzzResolve(f *testing.F) {
	system := testGradingSystem()
	resolver := NewGradeResolver(system)
	for _, seed := range []float64{0, 39, 39.5, 40, 79.99, 80, 100, 120, -1} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, v float64) {
		scale := resolver.Resolve(&v, system)
		if scale == nil {
			return
		}
		if v < scale.MinScore || v > scale.MaxScore {
			t.Fatalf("score %v resolved to band %s [%v, %v]", v, scale.Name, scale.MinScore, scale.MaxScore)
		}
	})
}
