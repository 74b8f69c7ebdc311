package visuals

import (
	"strings"
	"testing"

	"sprintlens/internal/stats"
)

func TestSprintHistoryChart(t *testing.T) {
	agg := &stats.SprintAggregate{
		Order: []int{101, 102, 103},
		Sprints: map[int]stats.SprintRollup{
			101: {CompletedPoints: stats.RunningStat{Actual: 10, RunningSum: 10, RunningAvg: 10}},
			102: {CompletedPoints: stats.RunningStat{Actual: 20, RunningSum: 30, RunningAvg: 15}},
			103: {CompletedPoints: stats.RunningStat{Actual: 30, RunningSum: 60, RunningAvg: 20}},
		},
	}

	chart := SprintHistoryChart(agg)

	for _, want := range []string{
		"xychart-beta",
		"x-axis [\"101\", \"102\", \"103\"]",
		"bar [10.0, 20.0, 30.0]",
		"line [10.0, 15.0, 20.0]",
	} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}

	// The Y-axis leaves headroom above the tallest bar.
	if !strings.Contains(chart, "0 --> 36") {
		t.Errorf("chart y-axis not scaled:\n%s", chart)
	}
}

func TestSprintHistoryChartEmpty(t *testing.T) {
	if got := SprintHistoryChart(nil); got != "" {
		t.Errorf("SprintHistoryChart(nil) = %q, want empty", got)
	}
	if got := SprintHistoryChart(&stats.SprintAggregate{}); got != "" {
		t.Errorf("SprintHistoryChart(empty) = %q, want empty", got)
	}
}
