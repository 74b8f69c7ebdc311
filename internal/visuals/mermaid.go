package visuals

import (
	"fmt"
	"math"
	"strings"

	"sprintlens/internal/stats"
)

// SprintHistoryChart creates a Mermaid xychart-beta of completed points per
// sprint against the running average, in ascending sprint order.
func SprintHistoryChart(agg *stats.SprintAggregate) string {
	if agg == nil || len(agg.Order) == 0 {
		return ""
	}

	var labels []string
	var actuals []string
	var averages []string

	maxY := 0.0
	for _, id := range agg.Order {
		rollup := agg.Sprints[id]
		labels = append(labels, fmt.Sprintf("\"%d\"", id))
		actuals = append(actuals, fmt.Sprintf("%.1f", rollup.CompletedPoints.Actual))
		averages = append(averages, fmt.Sprintf("%.1f", rollup.CompletedPoints.RunningAvg))
		if rollup.CompletedPoints.Actual > maxY {
			maxY = rollup.CompletedPoints.Actual
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Completed Points per Sprint\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))

	// Scale the Y-axis with breathing room above the tallest sprint.
	upper := int(math.Ceil(maxY * 1.2))
	if upper < 1 {
		upper = 1
	}
	sb.WriteString(fmt.Sprintf("    y-axis \"Story Points\" 0 --> %d\n", upper))

	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(actuals, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	sb.WriteString("```")
	return sb.String()
}
