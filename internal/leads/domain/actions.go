package domain

// Activity action vocabulary. Stored as text but treated as a closed set.
const (
	ActionLeadCreated            = "lead_created"
	ActionLeadUpdated            = "lead_updated"
	ActionStageProgression       = "stage_progression"
	ActionQualificationCompleted = "qualification_completed"
	ActionQualificationFailed    = "qualification_failed"
	ActionOutreachGenerated      = "outreach_generated"
	ActionOutreachSent           = "outreach_sent"
)

// ActorSystem is the actor recorded for activities produced by the system
// itself rather than a user.
const ActorSystem = "system"
