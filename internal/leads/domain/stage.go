// Package domain holds the lead pipeline domain model shared across the
// leads bounded context.
package domain

// Pipeline stages, in pipeline order. The set is fixed; there is no dynamic
// extension and no adjacency restriction between stages.
const (
	StageNew       = "New"
	StageQualified = "Qualified"
	StageContacted = "Contacted"
	StageMeeting   = "Meeting"
	StageWon       = "Won"
	StageLost      = "Lost"
)

// AllStages lists every pipeline stage in display order.
var AllStages = []string{
	StageNew,
	StageQualified,
	StageContacted,
	StageMeeting,
	StageWon,
	StageLost,
}

var stageDescriptions = map[string]string{
	StageNew:       "Newly added lead, not yet qualified",
	StageQualified: "Lead has been qualified and scored",
	StageContacted: "Initial outreach has been made",
	StageMeeting:   "Meeting or demo scheduled/completed",
	StageWon:       "Deal closed successfully",
	StageLost:      "Deal lost or disqualified",
}

var knownStages = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllStages))
	for _, s := range AllStages {
		m[s] = struct{}{}
	}
	return m
}()

// IsKnownStage reports whether stage is one of the six pipeline stages.
func IsKnownStage(stage string) bool {
	_, ok := knownStages[stage]
	return ok
}

// StageDescription returns the human description for a stage, or "" for an
// unknown stage.
func StageDescription(stage string) string {
	return stageDescriptions[stage]
}
