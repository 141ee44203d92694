package grading

import (
	"testing"

	"campuswire/pkg/types"

	"github.com/stretchr/testify/require"
)

func marks(statuses ...types.AttendanceStatus) []*types.AttendanceRecord {
	out := make([]*types.AttendanceRecord, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, &types.AttendanceRecord{StudentID: "s1", CourseID: "cs101", Status: s})
	}
	return out
}

func TestSummarizeAttendance(t *testing.T) {
	req := require.New(t)

	summary, ok := SummarizeAttendance(marks(
		types.AttendancePresent, types.AttendancePresent, types.AttendanceLate,
		types.AttendanceAbsent, types.AttendanceExcused,
	), DefaultAtRiskThreshold)
	req.True(ok)
	req.Equal(2, summary.Present)
	req.Equal(1, summary.Late)
	req.Equal(1, summary.Absent)
	req.Equal(1, summary.Excused)
	req.Equal(5, summary.Sessions)
	req.InDelta(0.75, summary.Rate, 1e-9)
	req.False(summary.AtRisk, "a rate equal to the threshold is not at risk")

	summary, ok = SummarizeAttendance(marks(
		types.AttendancePresent, types.AttendanceAbsent, types.AttendanceAbsent,
	), DefaultAtRiskThreshold)
	req.True(ok)
	req.InDelta(0.33, summary.Rate, 1e-9)
	req.True(summary.AtRisk)
}

func TestSummarizeAttendance_Undefined(t *testing.T) {
	_, ok := SummarizeAttendance(nil, DefaultAtRiskThreshold)
	require.False(t, ok)

	summary, ok := SummarizeAttendance(marks(types.AttendanceExcused, types.AttendanceExcused), DefaultAtRiskThreshold)
	require.False(t, ok)
	require.Equal(t, 2, summary.Excused)
	require.False(t, summary.AtRisk)
}
