package types

import "time"

// SessionStatus is the lifecycle state of a transfer session.
type SessionStatus string

const (
	StatusPending      SessionStatus = "pending"
	StatusWaitingPeer  SessionStatus = "waiting_peer"
	StatusTransferring SessionStatus = "transferring"
	StatusCompleted    SessionStatus = "completed"
	StatusCancelled    SessionStatus = "cancelled"
	StatusFailed       SessionStatus = "failed"
	StatusExpired      SessionStatus = "expired"
)

// Terminal reports whether the status ends the session lifecycle.
func (s SessionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// SessionSnapshot is the authoritative view of a transfer session handed to
// controllers, push-event payloads and poll responses. It never exposes the
// registry's internal bookkeeping.
type SessionSnapshot struct {
	Code             string        `json:"sessionCode"`
	Status           SessionStatus `json:"status"`
	FileName         string        `json:"fileName"`
	FileSize         int64         `json:"fileSize"`
	FileType         string        `json:"fileType"`
	SenderID         string        `json:"-"`
	ReceiverID       string        `json:"-"`
	SenderNickname   string        `json:"-"`
	ReceiverNickname string        `json:"-"`
	PeerConnected    bool          `json:"peerConnected"`
	TransferredBytes int64         `json:"transferredBytes"`
	TotalChunks      int           `json:"totalChunks"`
	ProgressPercent  float64       `json:"progressPercent"`
	SpeedBps         float64       `json:"speedBps"`
	CreatedAt        time.Time     `json:"createdAt"`
	ExpiresAt        time.Time     `json:"expiresAt"`
}

// CreateSessionRequest is the body of POST /session.
type CreateSessionRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// CreateSessionResponse carries the rendezvous code back to the sender.
type CreateSessionResponse struct {
	SessionCode string `json:"sessionCode"`
	ExpiresIn   int64  `json:"expiresIn"` // seconds until expiry
}

// JoinSessionRequest is the body of POST /session/join.
type JoinSessionRequest struct {
	SessionCode string `json:"sessionCode" binding:"required"`
}

// JoinSessionResponse tells the receiver what it is about to receive.
type JoinSessionResponse struct {
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	FileType     string `json:"fileType"`
	PeerNickname string `json:"peerNickname"`
}

// ChunkUploadResponse acknowledges a single ingested chunk.
type ChunkUploadResponse struct {
	TransferredBytes int64   `json:"transferredBytes"`
	ProgressPercent  float64 `json:"progressPercent"`
}
