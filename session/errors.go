package session

import "errors"

// Sentinel errors surfaced by the registry and ingest engine. Controllers
// map these onto HTTP statuses with errors.Is.
var (
	// ErrFileTooLarge rejects a create request above the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrSessionNotFound covers unknown codes and sessions already torn down.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired means the session outlived expires_at.
	ErrSessionExpired = errors.New("session expired")
	// ErrAlreadyJoined rejects a second receiver with a different id.
	ErrAlreadyJoined = errors.New("session already has a receiver")
	// ErrForbidden rejects an operation from a non-participant or wrong role.
	ErrForbidden = errors.New("operation not permitted for this participant")
	// ErrInvalidState rejects a transition the current status does not allow.
	ErrInvalidState = errors.New("session is not in a valid state for this operation")
	// ErrInvalidIndex rejects a chunk index outside [0, total).
	ErrInvalidIndex = errors.New("chunk index out of range")
	// ErrInvalidChunkSize rejects a payload whose size does not match the
	// expected size for its index.
	ErrInvalidChunkSize = errors.New("chunk payload size mismatch")
	// ErrIncompleteTransfer rejects an explicit complete before every chunk
	// index has been received.
	ErrIncompleteTransfer = errors.New("transfer is missing chunks")
)
