package contract

const DefaultMaxUploadBytes = 30 * 1024 * 1024

type UploadResponse struct {
	Filename string `json:"filename"`
}

type AttachmentResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	HumanSize    string `json:"human_size"`
	ContentType  string `json:"content_type"`
	NoteID       *int64 `json:"note_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}
