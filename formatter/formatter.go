package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"assignsim/sim"
)

// episodeData holds prepared episode data used by all formatters
type episodeData struct {
	RunID       string           `json:"run_id"`
	Steps       []sim.StepRecord `json:"steps"`
	TotalReward float64          `json:"total_reward"`
	Served      int              `json:"served"`
	Held        int              `json:"held"`
	Invalid     int              `json:"invalid"`
	Unserved    int              `json:"unserved"`
	EndTime     float64          `json:"end_time"`
	MeanReward  float64          `json:"mean_reward"`
}

// prepareEpisodeData extracts and organizes episode data for formatting
func prepareEpisodeData(result *sim.Result) *episodeData {
	data := &episodeData{
		RunID:       result.RunID,
		Steps:       result.Steps,
		TotalReward: result.TotalReward,
		Served:      result.Served,
		Held:        result.Held,
		Invalid:     result.Invalid,
		Unserved:    result.Unserved,
		EndTime:     result.EndTime,
	}
	if len(result.Steps) > 0 {
		data.MeanReward = result.TotalReward / float64(len(result.Steps))
	}
	return data
}

// FormatText returns the text representation of an episode result
func FormatText(result *sim.Result) string {
	data := prepareEpisodeData(result)
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("run %s\n", data.RunID))
	for _, step := range data.Steps {
		sb.WriteString(formatStepLine(step))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf(
		"totals: reward=%.3f mean=%.3f served=%d held=%d invalid=%d unserved=%d end=%.1f\n",
		data.TotalReward, data.MeanReward, data.Served, data.Held,
		data.Invalid, data.Unserved, data.EndTime))

	return sb.String()
}

// FormatJSON returns the JSON representation of an episode result
func FormatJSON(result *sim.Result) string {
	data := prepareEpisodeData(result)
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the CSV representation of an episode result
func FormatCSV(result *sim.Result) string {
	data := prepareEpisodeData(result)
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{
		"Time", "Server", "Action", "Customer", "Outcome", "Reward", "Visible",
	})

	for _, step := range data.Steps {
		customer := ""
		if step.CustomerID >= 0 {
			customer = fmt.Sprintf("%d", step.CustomerID)
		}
		writer.Write([]string{
			fmt.Sprintf("%.3f", step.Time),
			fmt.Sprintf("%d", step.ServerID),
			fmt.Sprintf("%d", step.Action),
			customer,
			step.Outcome,
			fmt.Sprintf("%.3f", step.Reward),
			fmt.Sprintf("%d", step.Visible),
		})
	}

	writer.Flush()
	return sb.String()
}

// formatStepLine formats a single decision step for text output
func formatStepLine(step sim.StepRecord) string {
	if step.CustomerID < 0 {
		return fmt.Sprintf("t=%8.3f server=%d action=%2d %-7s reward=%6.3f visible=%d",
			step.Time, step.ServerID, step.Action, step.Outcome, step.Reward, step.Visible)
	}
	return fmt.Sprintf("t=%8.3f server=%d action=%2d %-7s customer=%d reward=%6.3f visible=%d",
		step.Time, step.ServerID, step.Action, step.Outcome, step.CustomerID, step.Reward, step.Visible)
}
