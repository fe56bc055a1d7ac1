package queue

const (
	TypeLibraryIngest       = "library:ingest"
	TypeLibraryVectorDelete = "library:vector-delete"
	TypeVideoGenerate       = "video:generate"
	TypeVideoRetrySweep     = "video:retry-sweep"
	TypeVideoArtifactDelete = "video:artifact-delete"
	TypeNotifyEmail         = "notify:email"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type LibraryIngestPayload struct {
	DocumentID int64 `json:"document_id"`
}

// LibraryVectorDeletePayload describes the vectors left behind by a deleted
// document. DropCollection is set when it was the owner's last document.
type LibraryVectorDeletePayload struct {
	OwnerID        int64 `json:"owner_id"`
	StartID        int64 `json:"start_id"`
	EndID          int64 `json:"end_id"`
	DropCollection bool  `json:"drop_collection"`
}

type VideoGeneratePayload struct {
	VideoID int64 `json:"video_id"`
}

type VideoArtifactDeletePayload struct {
	VideoID int64 `json:"video_id"`
}

type NotifyEmailPayload struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}
