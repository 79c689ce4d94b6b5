package domain

// ProgressEvent is an immutable snapshot of one worker's state, emitted at
// lifecycle transitions and after each completed batch. Append marks an
// incremental log fragment (streamed model output) rather than a status
// message.
type ProgressEvent struct {
	WorkerID int    `json:"worker_id"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
	Append   bool   `json:"append"`
}
