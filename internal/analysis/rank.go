package analysis

import (
	"sort"

	"github.com/noah-isme/sma-result-analysis/internal/models"
)

// ApplyClassRanks returns a copy of students ordered by descending average marks
// with positional class ranks 1..n. Equal averages keep their input order and
// still receive distinct ranks.
func ApplyClassRanks(students []models.AggregatedStudent) []models.AggregatedStudent {
	ranked := cloneStudents(students)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AvgMarks > ranked[j].AvgMarks })
	for i := range ranked {
		ranked[i].ClassRank = intPtr(i + 1)
	}
	return ranked
}

// ApplyStreamRanks returns a copy of students with positional ranks assigned
// within each stream. Order is preserved and students without a stream keep a
// nil StreamRank.
func ApplyStreamRanks(students []models.AggregatedStudent) []models.AggregatedStudent {
	ranked := cloneStudents(students)

	partitions := make(map[string][]int)
	for i := range ranked {
		ranked[i].StreamRank = nil
		if ranked[i].ClassStreamID == nil {
			continue
		}
		stream := *ranked[i].ClassStreamID
		partitions[stream] = append(partitions[stream], i)
	}

	for _, members := range partitions {
		sort.SliceStable(members, func(a, b int) bool {
			return ranked[members[a]].AvgMarks > ranked[members[b]].AvgMarks
		})
		for pos, idx := range members {
			ranked[idx].StreamRank = intPtr(pos + 1)
		}
	}
	return ranked
}

func cloneStudents(students []models.AggregatedStudent) []models.AggregatedStudent {
	out := make([]models.AggregatedStudent, len(students))
	copy(out, students)
	return out
}

func intPtr(v int) *int {
	return &v
}
