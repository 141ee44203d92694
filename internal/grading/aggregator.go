// Package grading computes composite grades and attendance summaries from the
// full current record set. Nothing here is incremental.
package grading

import (
	"math"
	"slices"

	"campuswire/pkg/types"

	"github.com/samber/lo"
)

// PassMark on the 0-20 scale.
const PassMark = 10.0

// ComputeComposite returns the weighted mean of each assessment normalized to
// 20. ok is false when the composite is undefined: no assessments, a total
// weight of zero, or any non-positive max score.
func ComputeComposite(assessments []*types.Assessment) (types.CompositeGrade, bool) {
	if len(assessments) == 0 {
		return types.CompositeGrade{}, false
	}
	if lo.SomeBy(assessments, func(a *types.Assessment) bool { return a.MaxScore <= 0 || a.Weight < 0 }) {
		return types.CompositeGrade{}, false
	}

	totalWeight := sumSorted(lo.Map(assessments, func(a *types.Assessment, _ int) float64 { return a.Weight }))
	if totalWeight == 0 {
		return types.CompositeGrade{}, false
	}

	// FUNCTIONAL DISCOVERY: Summing in a fixed order keeps the composite identical
	// regardless of how the store returned the rows
	contributions := lo.Map(assessments, func(a *types.Assessment, _ int) float64 {
		return (a.Score / a.MaxScore) * 20 * a.Weight
	})
	score := round2(sumSorted(contributions) / totalWeight)

	status := types.GradeFail
	if score >= PassMark {
		status = types.GradePass
	}
	return types.CompositeGrade{
		Score:       score,
		Status:      status,
		TotalWeight: totalWeight,
		Count:       len(assessments),
	}, true
}

// StatusOf maps a possibly undefined composite to the status shown upstream.
func StatusOf(grade types.CompositeGrade, ok bool) types.GradeStatus {
	if !ok {
		return types.GradePending
	}
	return grade.Status
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sumSorted(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum
}
