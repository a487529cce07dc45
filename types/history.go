package types

import "time"

// TransferDirection marks which side of a transfer a history record describes.
type TransferDirection string

const (
	DirectionSend    TransferDirection = "send"
	DirectionReceive TransferDirection = "receive"
)

// TransferHistoryRecord is the immutable per-participant record written once
// a session reaches a terminal state.
type TransferHistoryRecord struct {
	ID            string            `json:"id"`
	ParticipantID string            `json:"participantId"`
	Direction     TransferDirection `json:"direction"`
	FileName      string            `json:"fileName"`
	FileSize      int64             `json:"fileSize"`
	PeerNickname  string            `json:"peerNickname"`
	Status        SessionStatus     `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}
