package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

func TestApplyClassRanksPositional(t *testing.T) {
	input := []models.AggregatedStudent{
		student("s3", 80, nil),
		student("s1", 90, nil),
		student("s2", 90, nil),
	}

	ranked := ApplyClassRanks(input)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, []string{ranked[0].StudentID, ranked[1].StudentID, ranked[2].StudentID})
	for i, s := range ranked {
		require.NotNil(t, s.ClassRank)
		assert.Equal(t, i+1, *s.ClassRank)
	}
	assert.Nil(t, input[0].ClassRank, "input must not be mutated")
	assert.Equal(t, "s3", input[0].StudentID)
}

func TestApplyStreamRanksPartitions(t *testing.T) {
	east, west := str("east"), str("west")
	input := []models.AggregatedStudent{
		student("s1", 60, east),
		student("s2", 70, west),
		student("s3", 80, east),
		student("s4", 95, nil),
		student("s5", 50, west),
	}

	ranked := ApplyStreamRanks(input)

	require.Len(t, ranked, 5)
	want := map[string]int{"s1": 2, "s2": 1, "s3": 1, "s5": 2}
	for i, s := range ranked {
		assert.Equal(t, input[i].StudentID, s.StudentID, "order preserved")
		if s.StudentID == "s4" {
			assert.Nil(t, s.StreamRank)
			continue
		}
		require.NotNil(t, s.StreamRank)
		assert.Equal(t, want[s.StudentID], *s.StreamRank)
	}
	for _, s := range input {
		assert.Nil(t, s.StreamRank)
	}
}

func TestApplyRanksEmpty(t *testing.T) {
	assert.Empty(t, ApplyClassRanks(nil))
	assert.Empty(t, ApplyStreamRanks(nil))
}
