package config

type WorkerKeyStruct struct {
	ArchiveSessionsQueue string
	// ArchiveSessionsProcessing holds items a worker has taken but not yet
	// stored.
	ArchiveSessionsProcessing string
}

var WorkerKey = &WorkerKeyStruct{
	ArchiveSessionsQueue:      "archive_sessions_queue",
	ArchiveSessionsProcessing: "archive_sessions_processing",
}
