// Package client implements the participant side of a transfer session: the
// HTTP API client, the sender's sequential chunk loop, the reconciliation
// poller and the push-event listener.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// Client talks to one codedrop server on behalf of one participant.
type Client struct {
	baseURL       string
	http          *http.Client
	participantID string
	nickname      string
}

// NewClient creates a client. A fresh participant id is generated when none
// is given.
func NewClient(baseURL, participantID, nickname string) *Client {
	if participantID == "" {
		participantID = tool.GenerateRandomUUID()
	}
	if nickname == "" {
		nickname = tool.NameGenerator()
	}
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		http:          tool.NewHTTPClient(),
		participantID: participantID,
		nickname:      nickname,
	}
}

// ParticipantID returns the id this client identifies itself with.
func (c *Client) ParticipantID() string {
	return c.participantID
}

type dataEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// FetchPolicy reads the server transfer policy. Called once at startup; the
// result is read-only.
func (c *Client) FetchPolicy(ctx context.Context) (types.PolicyResponse, error) {
	var policy types.PolicyResponse
	body, err := c.do(ctx, http.MethodGet, "/config", nil)
	if err != nil {
		return policy, err
	}
	if err := sonic.Unmarshal(body, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse policy response: %v", err)
	}
	return policy, nil
}

// CreateSession registers a new session for the declared file.
func (c *Client) CreateSession(ctx context.Context, fileName string, fileSize int64, fileType string) (types.CreateSessionResponse, error) {
	var resp types.CreateSessionResponse
	payload, err := sonic.Marshal(types.CreateSessionRequest{
		FileName: fileName,
		FileSize: fileSize,
		FileType: fileType,
	})
	if err != nil {
		return resp, err
	}
	return resp, c.doData(ctx, http.MethodPost, "/session", payload, &resp)
}

// JoinSession binds this participant as the session's receiver.
func (c *Client) JoinSession(ctx context.Context, code string) (types.JoinSessionResponse, error) {
	var resp types.JoinSessionResponse
	payload, err := sonic.Marshal(types.JoinSessionRequest{SessionCode: code})
	if err != nil {
		return resp, err
	}
	return resp, c.doData(ctx, http.MethodPost, "/session/join", payload, &resp)
}

// StartTransfer authorizes the transfer. Sender only.
func (c *Client) StartTransfer(ctx context.Context, code string) error {
	_, err := c.do(ctx, http.MethodPost, "/session/"+code+"/start", nil)
	return err
}

// UploadChunk sends one raw chunk and returns the server's byte counter.
func (c *Client) UploadChunk(ctx context.Context, code string, index int, payload []byte) (types.ChunkUploadResponse, error) {
	var resp types.ChunkUploadResponse
	path := fmt.Sprintf("/chunk/upload?sessionCode=%s&chunkIndex=%d", code, index)
	return resp, c.doData(ctx, http.MethodPost, path, payload, &resp)
}

// CompleteTransfer records the explicit completion signal. Sender only.
func (c *Client) CompleteTransfer(ctx context.Context, code string) error {
	var resp types.ChunkUploadResponse
	return c.doData(ctx, http.MethodPost, "/session/"+code+"/complete", nil, &resp)
}

// CancelSession cancels the session. Safe to call on terminal sessions.
func (c *Client) CancelSession(ctx context.Context, code string) error {
	_, err := c.do(ctx, http.MethodDelete, "/session/"+code, nil)
	return err
}

// FetchSession reads the authoritative session state (the poll endpoint).
func (c *Client) FetchSession(ctx context.Context, code string) (types.SessionSnapshot, error) {
	var snap types.SessionSnapshot
	return snap, c.doData(ctx, http.MethodGet, "/session/"+code, nil, &snap)
}

// Download streams the completed file into dst. The server serves it once.
func (c *Client) Download(ctx context.Context, code string, dst io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+code, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, statusError(resp.StatusCode, body)
	}
	return io.Copy(dst, resp.Body)
}

// doData performs a request whose success body is a {"data": ...} envelope.
func (c *Client) doData(ctx context.Context, method, path string, payload []byte, out any) error {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	var envelope dataEnvelope
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response envelope: %v", err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("response missing data")
	}
	if err := sonic.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %v", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}
	if method == http.MethodPost && payload != nil {
		if strings.HasPrefix(path, "/chunk/upload") {
			req.Header.Set("Content-Type", "application/octet-stream")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %v", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/transfer/v1"+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("X-Participant-Id", c.participantID)
	req.Header.Set("X-Participant-Name", c.nickname)
	return req, nil
}

// statusError folds an error response back into the registry's sentinel
// errors so callers can errors.Is on them across the wire.
func statusError(status int, body []byte) error {
	var envelope dataEnvelope
	msg := ""
	if err := sonic.Unmarshal(body, &envelope); err == nil {
		msg = envelope.Error
	}
	var base error
	switch status {
	case http.StatusNotFound:
		base = session.ErrSessionNotFound
	case http.StatusGone:
		base = session.ErrSessionExpired
	case http.StatusForbidden:
		base = session.ErrForbidden
	case http.StatusConflict:
		base = session.ErrInvalidState
	case http.StatusRequestEntityTooLarge:
		base = session.ErrFileTooLarge
	default:
		if msg == "" {
			return fmt.Errorf("server returned status %d", status)
		}
		return fmt.Errorf("server returned status %d: %s", status, msg)
	}
	if msg == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, msg)
}
