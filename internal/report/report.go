// Package report aggregates normalized grade rows into the shapes the API
// and CLI present: course totals, per-course summaries, per-assessment
// details and the instructor overview.
package report

import (
	"math"
	"sort"
	"strings"

	"markbook/internal/workbook"
)

// UnspecifiedCourse labels rows whose course cell was empty. The label is
// applied at the reporting boundary only; the grade table keeps the empty
// string.
const UnspecifiedCourse = "(Unspecified)"

// CourseSummary is one course line of a student's summary.
type CourseSummary struct {
	Course      string `json:"course"`
	Assessments int    `json:"assessments"`
	Overall     Metric `json:"overall_percent"`
}

// DetailRow is one assessment line of a student's detail view. Score and
// Weight stay nil when the source cell was missing; Percent treats a missing
// score as zero and a zero out-of as out of 100, so it is always defined.
type DetailRow struct {
	Course     string   `json:"course"`
	Term       string   `json:"term"`
	Assessment string   `json:"assessment"`
	Sheet      string   `json:"sheet"`
	Score      *float64 `json:"score"`
	OutOf      float64  `json:"out_of"`
	Weight     *float64 `json:"weight"`
	Percent    Metric   `json:"percent"`
}

// CourseTotal aggregates one course's rows into a 0-100 percentage.
//
// When any row carries a weight the total is the weight-normalized sum of
// per-assessment fractions; rows without a weight count as weight zero. If
// the weights sum to zero the course falls back to the points policy:
// total scored over total possible. An empty slice, or a points denominator
// of zero, yields NaN.
func CourseTotal(rows []workbook.GradeRow) float64 {
	if len(rows) == 0 {
		return math.NaN()
	}
	weighted := false
	for _, r := range rows {
		if r.Weight != nil {
			weighted = true
			break
		}
	}
	if weighted {
		var totalWeight float64
		for _, r := range rows {
			totalWeight += weightOrZero(r)
		}
		if totalWeight == 0 {
			return pointsTotal(rows)
		}
		var acc float64
		for _, r := range rows {
			acc += scoreOrZero(r) / outOfOrFull(r) * weightOrZero(r)
		}
		return acc / totalWeight * 100
	}
	return pointsTotal(rows)
}

func pointsTotal(rows []workbook.GradeRow) float64 {
	var scored, possible float64
	for _, r := range rows {
		scored += scoreOrZero(r)
		possible += outOfOrFull(r)
	}
	if possible == 0 {
		return math.NaN()
	}
	return scored / possible * 100
}

// Summarize groups rows by course and totals each group. Output is sorted by
// the course label, so unlabeled rows surface first under UnspecifiedCourse.
func Summarize(rows workbook.GradeTable) []CourseSummary {
	groups := make(map[string][]workbook.GradeRow)
	var order []string
	for _, r := range rows {
		if _, ok := groups[r.Course]; !ok {
			order = append(order, r.Course)
		}
		groups[r.Course] = append(groups[r.Course], r)
	}
	out := make([]CourseSummary, 0, len(order))
	for _, course := range order {
		grp := groups[course]
		out = append(out, CourseSummary{
			Course:      CourseLabel(course),
			Assessments: len(grp),
			Overall:     Metric(CourseTotal(grp)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Course < out[j].Course })
	return out
}

// Details flattens rows into the per-assessment view, sorted by course then
// assessment. Course names stay raw here; only summaries relabel them.
func Details(rows workbook.GradeTable) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DetailRow{
			Course:     r.Course,
			Term:       r.Term,
			Assessment: r.Assessment,
			Sheet:      r.Sheet,
			Score:      r.Score,
			OutOf:      r.OutOf,
			Weight:     r.Weight,
			Percent:    Metric(scoreOrZero(r) / outOfOrFull(r) * 100),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Course != out[j].Course {
			return out[i].Course < out[j].Course
		}
		return out[i].Assessment < out[j].Assessment
	})
	return out
}

// CourseLabel maps an empty course name to the display label.
func CourseLabel(course string) string {
	if strings.TrimSpace(course) == "" {
		return UnspecifiedCourse
	}
	return course
}

func scoreOrZero(r workbook.GradeRow) float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

// outOfOrFull treats a zero denominator as out of 100, same as a missing
// one, so a lone zero cell cannot blank a whole course.
func outOfOrFull(r workbook.GradeRow) float64 {
	if r.OutOf == 0 {
		return 100
	}
	return r.OutOf
}

func weightOrZero(r workbook.GradeRow) float64 {
	if r.Weight == nil {
		return 0
	}
	return *r.Weight
}
