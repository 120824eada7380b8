package model

import "time"

// UploadTicket is the result of asking for a one-time upload URL.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	StorageID string    `json:"storageId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoredObject describes one object in the bucket.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}
