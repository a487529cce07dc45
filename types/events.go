package types

// Named push events fanned out to session participants. Delivery is
// best-effort: no ordering, no dedup, no guarantee. Consumers treat them as
// hints and reconcile against GET /session/:code.
const (
	EventPeerConnected     = "peer_connected"
	EventTransferStarted   = "transfer_started"
	EventTransferProgress  = "transfer_progress"
	EventTransferCompleted = "transfer_completed"
	EventTransferCancelled = "transfer_cancelled"
)

// TransferEvent is the wire shape of one push event.
type TransferEvent struct {
	Event       string         `json:"event"`
	SessionCode string         `json:"sessionCode"`
	Data        map[string]any `json:"data,omitempty"`
}
