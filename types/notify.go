package types

const (
	NotifyTypeFilesRegistered  = "files_registered"
	NotifyTypeSessionCreated   = "session_created"
	NotifyTypeSessionConsumed  = "session_consumed"
	NotifyTypeSessionCancelled = "session_cancelled"
	NotifyTypeFileServed       = "file_served"
	NotifyTypeUploadEnd        = "upload_end"
	NotifyTypeInfo             = "info"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "session_created"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// NotifyHub broadcasts notifications to connected web clients.
type NotifyHub interface {
	Broadcast(notification *Notification)
}
