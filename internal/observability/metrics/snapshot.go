package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is a flattened view of the triage metrics for the admin stats page.
type Snapshot struct {
	TurnsByIntent        map[string]int64 `json:"turns_by_intent"`
	MatchesByUrgency     map[string]int64 `json:"matches_by_urgency"`
	Unmatched            int64            `json:"unmatched"`
	ConfirmationsByReply map[string]int64 `json:"confirmations_by_answer"`
	Appointments         map[string]int64 `json:"appointments"`
	LLMCalls             int64            `json:"llm_calls"`
	LLMErrors            int64            `json:"llm_errors"`
	LLMMeanMs            float64          `json:"llm_mean_ms"`
	ActiveSessions       int64            `json:"active_sessions"`
}

// TakeSnapshot reads the current values from gatherer.
func TakeSnapshot(gatherer prometheus.Gatherer) Snapshot {
	snap := Snapshot{
		TurnsByIntent:        map[string]int64{},
		MatchesByUrgency:     map[string]int64{},
		ConfirmationsByReply: map[string]int64{},
		Appointments:         map[string]int64{},
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	var llmSum float64
	var llmOK uint64
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case namespace + "_dialogue_turns_total":
			for _, metric := range mf.Metric {
				snap.TurnsByIntent[labelValue(metric, "intent")] += counterValue(metric)
			}
		case namespace + "_dialogue_symptom_matches_total":
			for _, metric := range mf.Metric {
				if labelValue(metric, "outcome") == "unmatched" {
					snap.Unmatched += counterValue(metric)
					continue
				}
				snap.MatchesByUrgency[labelValue(metric, "urgency")] += counterValue(metric)
			}
		case namespace + "_dialogue_confirmations_total":
			for _, metric := range mf.Metric {
				snap.ConfirmationsByReply[labelValue(metric, "answer")] += counterValue(metric)
			}
		case namespace + "_appointments_operations_total":
			for _, metric := range mf.Metric {
				key := labelValue(metric, "operation") + ":" + labelValue(metric, "result")
				snap.Appointments[key] += counterValue(metric)
			}
		case namespace + "_llm_latency_seconds":
			for _, metric := range mf.Metric {
				h := metric.GetHistogram()
				if h == nil {
					continue
				}
				snap.LLMCalls += int64(h.GetSampleCount())
				if strings.EqualFold(labelValue(metric, "status"), "ok") {
					llmOK += h.GetSampleCount()
					llmSum += h.GetSampleSum()
				} else {
					snap.LLMErrors += int64(h.GetSampleCount())
				}
			}
		case namespace + "_dialogue_active_sessions":
			for _, metric := range mf.Metric {
				if g := metric.GetGauge(); g != nil {
					snap.ActiveSessions = int64(g.GetValue())
				}
			}
		}
	}
	if llmOK > 0 {
		snap.LLMMeanMs = llmSum / float64(llmOK) * 1000.0
	}
	return snap
}

func labelValue(metric *dto.Metric, name string) string {
	if metric == nil {
		return ""
	}
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func counterValue(metric *dto.Metric) int64 {
	if metric == nil || metric.GetCounter() == nil {
		return 0
	}
	return int64(metric.GetCounter().GetValue())
}
