package report

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"markbook/internal/workbook"
)

// CourseOverview is one course line of the instructor overview: the spread
// of per-student course totals across the whole table.
type CourseOverview struct {
	Course      string `json:"course"`
	Students    int    `json:"students"`
	Assessments int    `json:"assessments"`
	Mean        Metric `json:"mean_percent"`
	Median      Metric `json:"median_percent"`
	Min         Metric `json:"min_percent"`
	Max         Metric `json:"max_percent"`
}

// Overview computes per-course statistics over every student in the table.
// Students are keyed case-insensitively, matching how logins resolve ids.
// Undefined per-student totals are left out of the statistics; a course with
// no defined totals reports NaN metrics.
func Overview(rows workbook.GradeTable) []CourseOverview {
	type courseAcc struct {
		count    int
		students map[string][]workbook.GradeRow
	}
	byCourse := make(map[string]*courseAcc)
	var order []string
	for _, r := range rows {
		acc, ok := byCourse[r.Course]
		if !ok {
			acc = &courseAcc{students: make(map[string][]workbook.GradeRow)}
			byCourse[r.Course] = acc
			order = append(order, r.Course)
		}
		acc.count++
		key := strings.ToLower(strings.TrimSpace(r.StudentID))
		acc.students[key] = append(acc.students[key], r)
	}

	out := make([]CourseOverview, 0, len(order))
	for _, course := range order {
		acc := byCourse[course]
		totals := make([]float64, 0, len(acc.students))
		for _, grp := range acc.students {
			if t := CourseTotal(grp); !math.IsNaN(t) {
				totals = append(totals, t)
			}
		}
		out = append(out, CourseOverview{
			Course:      CourseLabel(course),
			Students:    len(acc.students),
			Assessments: acc.count,
			Mean:        statMetric(stats.Mean, totals),
			Median:      statMetric(stats.Median, totals),
			Min:         statMetric(stats.Min, totals),
			Max:         statMetric(stats.Max, totals),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Course < out[j].Course })
	return out
}

func statMetric(fn func(stats.Float64Data) (float64, error), totals []float64) Metric {
	v, err := fn(stats.Float64Data(totals))
	if err != nil {
		return Metric(math.NaN())
	}
	return Metric(v)
}
