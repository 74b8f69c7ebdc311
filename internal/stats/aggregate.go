package stats

import "fmt"

// RunningStat is one tracked field's value at a point in the sprint
// sequence: the sprint's own value plus the cumulative sum and average of
// everything processed so far.
type RunningStat struct {
	Actual     float64 `json:"actual"`
	RunningSum float64 `json:"running_sum"`
	RunningAvg float64 `json:"running_avg"`
}

// SprintRollup holds the eight aggregated fields for one sprint, plus a
// back-reference to the snapshot it was computed from.
type SprintRollup struct {
	Info SprintSnapshot `json:"info"`

	CompletedPoints  RunningStat `json:"completed_points"`
	IncompletePoints RunningStat `json:"incomplete_points"`
	PuntedPoints     RunningStat `json:"punted_points"`
	AddedPoints      RunningStat `json:"added_points"`

	CompletedIssueCount  RunningStat `json:"completed_issue_count"`
	IncompleteIssueCount RunningStat `json:"incomplete_issue_count"`
	PuntedIssueCount     RunningStat `json:"punted_issue_count"`
	AddedIssueCount      RunningStat `json:"added_issue_count"`
}

// SprintAggregate is the history-wide result: one rollup per sprint, keyed
// by sprint id, with Order recording ascending chronological processing
// order.
type SprintAggregate struct {
	Order   []int                `json:"asc_order"`
	Sprints map[int]SprintRollup `json:"sprints"`
}

// AggregateHistory folds a sprint sequence into running sums and averages.
//
// The input is expected most-recent-first, the order sprint lists come back
// from Jira; the first step reverses it into ascending chronological order
// and all running values accumulate in that direction. The aggregate is a
// pure function of the input: it is recomputed from scratch every call and
// performs no I/O.
func AggregateHistory(snapshots []SprintSnapshot) (*SprintAggregate, error) {
	asc := make([]SprintSnapshot, len(snapshots))
	for i, s := range snapshots {
		asc[len(snapshots)-1-i] = s
	}

	agg := &SprintAggregate{
		Order:   make([]int, 0, len(asc)),
		Sprints: make(map[int]SprintRollup, len(asc)),
	}

	var prev *SprintRollup
	for idx, snap := range asc {
		if snap.SprintID == 0 {
			return nil, fmt.Errorf("sprint at ascending index %d has no sprint id", idx)
		}

		rollup := SprintRollup{Info: snap}

		fields := []struct {
			dst   *RunningStat
			last  func(*SprintRollup) float64
			value float64
		}{
			{&rollup.CompletedPoints, func(r *SprintRollup) float64 { return r.CompletedPoints.RunningSum }, snap.CompletedPoints},
			{&rollup.IncompletePoints, func(r *SprintRollup) float64 { return r.IncompletePoints.RunningSum }, snap.IncompletePoints},
			{&rollup.PuntedPoints, func(r *SprintRollup) float64 { return r.PuntedPoints.RunningSum }, snap.PuntedPoints},
			{&rollup.AddedPoints, func(r *SprintRollup) float64 { return r.AddedPoints.RunningSum }, snap.AddedPoints()},
			{&rollup.CompletedIssueCount, func(r *SprintRollup) float64 { return r.CompletedIssueCount.RunningSum }, float64(snap.CompletedIssueCount)},
			{&rollup.IncompleteIssueCount, func(r *SprintRollup) float64 { return r.IncompleteIssueCount.RunningSum }, float64(snap.IncompleteIssueCount)},
			{&rollup.PuntedIssueCount, func(r *SprintRollup) float64 { return r.PuntedIssueCount.RunningSum }, float64(snap.PuntedIssueCount)},
			{&rollup.AddedIssueCount, func(r *SprintRollup) float64 { return r.AddedIssueCount.RunningSum }, float64(len(snap.AddedIssues))},
		}

		for _, f := range fields {
			var prevSum float64
			if prev != nil {
				prevSum = f.last(prev)
			}
			*f.dst = roll(prevSum, f.value, idx)
		}

		agg.Order = append(agg.Order, snap.SprintID)
		agg.Sprints[snap.SprintID] = rollup
		prev = &rollup
	}

	return agg, nil
}

// roll advances one field's running aggregate by the current value.
func roll(prevSum float64, value float64, idx int) RunningStat {
	if idx == 0 {
		return RunningStat{Actual: value, RunningSum: value, RunningAvg: value}
	}
	sum := prevSum + value
	return RunningStat{
		Actual:     value,
		RunningSum: sum,
		RunningAvg: sum / float64(idx+1),
	}
}
