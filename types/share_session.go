package types

import "time"

// ShareFileEntry holds file metadata and local path for download
type ShareFileEntry struct {
	FileInfo  FileInfo
	LocalPath string // path on disk for serving
}

// ShareSession is the download-API view of an issued link.
type ShareSession struct {
	SessionId string
	Files     map[string]ShareFileEntry
	CreatedAt time.Time
	Pin       string
}

// IssuedLink is what the link issuer hands back for a file set.
type IssuedLink struct {
	ID      string `json:"id"`
	Payload string `json:"payload"` // embedded in the QR code, a download URL
}

// TransferSession is the single active sharing session of the sender.
// Files is a copy taken at issuance time.
type TransferSession struct {
	ID        string           `json:"id"`
	Payload   string           `json:"payload"`
	Files     []RegisteredFile `json:"files"`
	Consumed  bool             `json:"consumed"`
	CreatedAt time.Time        `json:"createdAt"`
}

// SenderStatus is returned by GET /api/self/v1/send/session
type SenderStatus struct {
	State   string           `json:"state"`
	Session *TransferSession `json:"session,omitempty"`
	Files   []RegisteredFile `json:"files"`
}
