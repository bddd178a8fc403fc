package types

// FileInfo is the LocalSend v2 file descriptor used by prepare-download and prepare-upload.
type FileInfo struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	FileType string `json:"fileType"`
	SHA256   string `json:"sha256,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

// RegisteredFile is a local file accepted by the intake queue. Path is the uniqueness key.
type RegisteredFile struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	FileType  string `json:"fileType"`
	SizeText  string `json:"sizeText,omitempty"` // e.g. "1.2 MB"
}
