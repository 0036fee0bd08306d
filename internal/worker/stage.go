package worker

// Stage — стадия обработки одного события WorkRequestCreated.
//
//	Received → Resolved → Planned → Executed → Done
//	Received → NotFound → Dropped
//	любая стадия → Failed(stage)
type Stage string

const (
	StageReceived Stage = "received"
	StageResolved Stage = "resolved"
	StagePlanned  Stage = "planned"
	StageExecuted Stage = "executed"
	StageDone     Stage = "done"
	StageNotFound Stage = "not_found"
	StageDropped  Stage = "dropped"
)
