package grading

import (
	"campuswire/pkg/types"

	"github.com/samber/lo"
)

// DefaultAtRiskThreshold is the attendance rate under which a student is
// flagged.
const DefaultAtRiskThreshold = 0.75

// SummarizeAttendance counts marks per status and computes the attendance
// rate as (present + late) over non-excused sessions. ok is false when no
// session counts toward the rate.
func SummarizeAttendance(records []*types.AttendanceRecord, threshold float64) (types.AttendanceSummary, bool) {
	counts := lo.CountValuesBy(records, func(r *types.AttendanceRecord) types.AttendanceStatus { return r.Status })

	summary := types.AttendanceSummary{
		Present:  counts[types.AttendancePresent],
		Absent:   counts[types.AttendanceAbsent],
		Late:     counts[types.AttendanceLate],
		Excused:  counts[types.AttendanceExcused],
		Sessions: len(records),
	}

	countable := summary.Present + summary.Absent + summary.Late
	if countable == 0 {
		return summary, false
	}

	summary.Rate = round2(float64(summary.Present+summary.Late) / float64(countable))
	summary.AtRisk = summary.Rate < threshold
	return summary, true
}
