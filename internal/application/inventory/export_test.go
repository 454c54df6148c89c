package inventory

var (
	ProcessNext = (*ImportWorker).processNext
	ReapExpired = (*ImportWorker).reapExpired
)
