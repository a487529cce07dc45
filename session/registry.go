package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// Publisher fans a named event out to every socket bound to a session's
// participants. Best-effort: implementations must never block registry
// operations on slow consumers.
type Publisher interface {
	Publish(code, event string, data map[string]any)
}

// Recorder persists one immutable history record per participant once a
// session reaches a terminal state.
type Recorder interface {
	Record(rec types.TransferHistoryRecord) error
}

// ChunkSink stores chunk payloads keyed by (code, index). The registry only
// needs the logical contract; the filesystem layout is the sink's business.
type ChunkSink interface {
	Put(code string, index int, payload []byte) error
	Remove(code string) error
}

// Policy is the server-defined transfer policy, fetched once by clients and
// treated as read-only.
type Policy struct {
	MaxFileSize int64
	ChunkSize   int64
	ExpireAfter time.Duration
}

// progressPushInterval throttles transfer_progress fan-out so a fast LAN
// sender does not turn every chunk ack into a broadcast.
const progressPushInterval = 200 * time.Millisecond

// transfer is the registry's in-memory session record. All mutation happens
// under mu; the registry map lock is never held while mu is.
type transfer struct {
	mu sync.Mutex

	code     string
	status   types.SessionStatus
	fileName string
	fileSize int64
	fileType string

	senderID         string
	senderNickname   string
	receiverID       string
	receiverNickname string

	// received maps chunk index to payload size. transferredBytes is kept
	// equal to the sum of its values, so a retransmitted index can never
	// double count.
	received         map[int]int64
	transferredBytes int64
	totalChunks      int

	createdAt time.Time
	expiresAt time.Time
	startedAt time.Time

	progressPush *rate.Limiter
}

// Registry owns the lifecycle of every active transfer session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*transfer

	policy Policy
	events Publisher
	histry Recorder
	chunks ChunkSink

	now func() time.Time
}

// NewRegistry creates a registry. events, history and chunks may be nil; the
// registry degrades to pure in-memory state tracking.
func NewRegistry(policy Policy, events Publisher, history Recorder, chunks ChunkSink) *Registry {
	if policy.ChunkSize <= 0 {
		policy.ChunkSize = tool.DefaultChunkSize
	}
	if policy.ExpireAfter <= 0 {
		policy.ExpireAfter = tool.DefaultSessionExpireMinutes * time.Minute
	}
	return &Registry{
		sessions: make(map[string]*transfer),
		policy:   policy,
		events:   events,
		histry:   history,
		chunks:   chunks,
		now:      time.Now,
	}
}

// Policy returns the registry's transfer policy.
func (r *Registry) Policy() Policy {
	return r.policy
}

// CreateSession registers a new session for the sender's declared file and
// returns its rendezvous code. The code is re-rolled until it collides with
// no live session; at six digits collisions are rare but real under load.
func (r *Registry) CreateSession(senderID, senderNickname, fileName string, fileSize int64, fileType string) (types.SessionSnapshot, error) {
	if r.policy.MaxFileSize > 0 && fileSize > r.policy.MaxFileSize {
		return types.SessionSnapshot{}, ErrFileTooLarge
	}
	if fileSize < 0 {
		return types.SessionSnapshot{}, ErrFileTooLarge
	}
	if senderNickname == "" {
		senderNickname = tool.NameGenerator()
	}

	now := r.now()
	t := &transfer{
		status:         types.StatusWaitingPeer,
		fileName:       fileName,
		fileSize:       fileSize,
		fileType:       fileType,
		senderID:       senderID,
		senderNickname: senderNickname,
		received:       make(map[int]int64),
		totalChunks:    TotalChunks(fileSize, r.policy.ChunkSize),
		createdAt:      now,
		expiresAt:      now.Add(r.policy.ExpireAfter),
		progressPush:   rate.NewLimiter(rate.Every(progressPushInterval), 1),
	}

	r.mu.Lock()
	for {
		code := tool.GenerateSessionCode()
		if _, taken := r.sessions[code]; taken {
			continue
		}
		t.code = code
		r.sessions[code] = t
		break
	}
	r.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Created session %s: file=%s size=%d sender=%s", t.code, fileName, fileSize, senderID)
	return r.snapshot(t), nil
}

// JoinSession binds the receiver to the session. Binding does not start the
// transfer: the sender still has to explicitly authorize it, peer discovery
// and transfer authorization are separate steps. Rejoining with the same
// receiver id is idempotent.
func (r *Registry) JoinSession(code, receiverID, receiverNickname string) (types.SessionSnapshot, error) {
	t, err := r.lookup(code)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	t.mu.Lock()
	if err := r.expireLocked(t); err != nil {
		t.mu.Unlock()
		return types.SessionSnapshot{}, err
	}
	if t.status.Terminal() {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrSessionNotFound
	}
	if t.receiverID != "" && t.receiverID != receiverID {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrAlreadyJoined
	}
	firstJoin := t.receiverID == ""
	if firstJoin {
		if receiverNickname == "" {
			receiverNickname = tool.NameGenerator()
		}
		t.receiverID = receiverID
		t.receiverNickname = receiverNickname
	}
	snap := r.snapshotLocked(t)
	t.mu.Unlock()

	if firstJoin {
		tool.DefaultLogger.Infof("[Session] Receiver %s joined session %s", receiverID, code)
		r.publish(code, types.EventPeerConnected, map[string]any{
			"peerNickname": snap.ReceiverNickname,
		})
	}
	return snap, nil
}

// StartTransfer moves the session to transferring. Only the original sender
// may start, and only once a receiver is bound.
func (r *Registry) StartTransfer(code, senderID string) (types.SessionSnapshot, error) {
	t, err := r.lookup(code)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	t.mu.Lock()
	if err := r.expireLocked(t); err != nil {
		t.mu.Unlock()
		return types.SessionSnapshot{}, err
	}
	if t.senderID != senderID {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrForbidden
	}
	if t.status != types.StatusWaitingPeer || t.receiverID == "" {
		t.mu.Unlock()
		return types.SessionSnapshot{}, ErrInvalidState
	}
	t.status = types.StatusTransferring
	t.startedAt = r.now()
	snap := r.snapshotLocked(t)
	t.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Transfer started for session %s (%d chunks)", code, snap.TotalChunks)
	r.publish(code, types.EventTransferStarted, map[string]any{
		"fileName": snap.FileName,
		"fileSize": snap.FileSize,
	})
	return snap, nil
}

// CancelSession moves a non-terminal session to cancelled. Either participant
// may cancel; cancelling an already-terminal session is a no-op, not an
// error.
func (r *Registry) CancelSession(code, actorID string) error {
	t, err := r.lookup(code)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.senderID != actorID && t.receiverID != actorID {
		t.mu.Unlock()
		return ErrForbidden
	}
	if t.status.Terminal() {
		t.mu.Unlock()
		return nil
	}
	r.finalizeLocked(t, types.StatusCancelled)
	t.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Session %s cancelled by %s", code, actorID)
	r.publish(code, types.EventTransferCancelled, map[string]any{
		"status": types.StatusCancelled,
	})
	r.removeChunks(code)
	return nil
}

// FailSession marks a non-terminal session failed. Used when the server side
// itself cannot honor the session any more (e.g. chunk spool lost).
func (r *Registry) FailSession(code, reason string) {
	t, err := r.lookup(code)
	if err != nil {
		return
	}
	t.mu.Lock()
	if t.status.Terminal() {
		t.mu.Unlock()
		return
	}
	r.finalizeLocked(t, types.StatusFailed)
	t.mu.Unlock()

	tool.DefaultLogger.Errorf("[Session] Session %s failed: %s", code, reason)
	r.publish(code, types.EventTransferCancelled, map[string]any{
		"status": types.StatusFailed,
	})
	r.removeChunks(code)
}

// GetSession returns the authoritative snapshot for a poll. Expiry is
// checked cooperatively here with the same cutoff the sweep uses.
func (r *Registry) GetSession(code string) (types.SessionSnapshot, error) {
	t, err := r.lookup(code)
	if err != nil {
		return types.SessionSnapshot{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// A poll observing a past-due session reports it as expired rather than
	// erroring; the poller treats expired as an ordinary terminal status.
	_ = r.expireLocked(t)
	return r.snapshotLocked(t), nil
}

// Sweep transitions every past-due non-terminal session to expired and
// evicts sessions past their deadline. Cooperative checks and the sweep
// share the same cutoff so a session can never be live for one path and
// expired for the other.
func (r *Registry) Sweep() {
	now := r.now()

	r.mu.Lock()
	due := make([]*transfer, 0)
	for code, t := range r.sessions {
		if now.After(t.expiresAt) {
			due = append(due, t)
			delete(r.sessions, code)
		}
	}
	r.mu.Unlock()

	for _, t := range due {
		t.mu.Lock()
		code := t.code
		wasTerminal := t.status.Terminal()
		if !wasTerminal {
			r.finalizeLocked(t, types.StatusExpired)
		}
		t.mu.Unlock()

		if !wasTerminal {
			tool.DefaultLogger.Infof("[Session] Session %s expired", code)
			r.publish(code, types.EventTransferCancelled, map[string]any{
				"status": types.StatusExpired,
			})
		}
		r.removeChunks(code)
	}
}

// RunSweeper runs Sweep on a fixed cadence until stop is closed.
func (r *Registry) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}

func (r *Registry) lookup(code string) (*transfer, error) {
	r.mu.RLock()
	t, ok := r.sessions[code]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return t, nil
}

// expireLocked is the cooperative half of expiry. Caller holds t.mu.
func (r *Registry) expireLocked(t *transfer) error {
	if t.status.Terminal() {
		if t.status == types.StatusExpired {
			return ErrSessionExpired
		}
		return nil
	}
	if r.now().After(t.expiresAt) {
		r.finalizeLocked(t, types.StatusExpired)
		go r.publish(t.code, types.EventTransferCancelled, map[string]any{
			"status": types.StatusExpired,
		})
		return ErrSessionExpired
	}
	return nil
}

// finalizeLocked records the terminal transition and archives it into
// history. Caller holds t.mu.
func (r *Registry) finalizeLocked(t *transfer, status types.SessionStatus) {
	t.status = status
	if r.histry == nil {
		return
	}
	now := r.now()
	records := []types.TransferHistoryRecord{{
		ID:            tool.GenerateRandomUUID(),
		ParticipantID: t.senderID,
		Direction:     types.DirectionSend,
		FileName:      t.fileName,
		FileSize:      t.fileSize,
		PeerNickname:  t.receiverNickname,
		Status:        status,
		CreatedAt:     now,
	}}
	if t.receiverID != "" {
		records = append(records, types.TransferHistoryRecord{
			ID:            tool.GenerateRandomUUID(),
			ParticipantID: t.receiverID,
			Direction:     types.DirectionReceive,
			FileName:      t.fileName,
			FileSize:      t.fileSize,
			PeerNickname:  t.senderNickname,
			Status:        status,
			CreatedAt:     now,
		})
	}
	for _, rec := range records {
		if err := r.histry.Record(rec); err != nil {
			tool.DefaultLogger.Errorf("[Session] Failed to record history for session %s: %v", t.code, err)
		}
	}
}

func (r *Registry) snapshot(t *transfer) types.SessionSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return r.snapshotLocked(t)
}

func (r *Registry) snapshotLocked(t *transfer) types.SessionSnapshot {
	var elapsed time.Duration
	if !t.startedAt.IsZero() {
		elapsed = r.now().Sub(t.startedAt)
	}
	return types.SessionSnapshot{
		Code:             t.code,
		Status:           t.status,
		FileName:         t.fileName,
		FileSize:         t.fileSize,
		FileType:         t.fileType,
		SenderID:         t.senderID,
		ReceiverID:       t.receiverID,
		SenderNickname:   t.senderNickname,
		ReceiverNickname: t.receiverNickname,
		PeerConnected:    t.receiverID != "",
		TransferredBytes: t.transferredBytes,
		TotalChunks:      t.totalChunks,
		ProgressPercent:  Percent(t.transferredBytes, t.fileSize),
		SpeedBps:         Speed(t.transferredBytes, elapsed),
		CreatedAt:        t.createdAt,
		ExpiresAt:        t.expiresAt,
	}
}

func (r *Registry) publish(code, event string, data map[string]any) {
	if r.events == nil {
		return
	}
	r.events.Publish(code, event, data)
}

func (r *Registry) removeChunks(code string) {
	if r.chunks == nil {
		return
	}
	if err := r.chunks.Remove(code); err != nil {
		tool.DefaultLogger.Warnf("[Session] Failed to remove chunks for session %s: %v", code, err)
	}
}
