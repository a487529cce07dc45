package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

type SessionController struct {
	registry *session.Registry
}

func NewSessionController(registry *session.Registry) *SessionController {
	return &SessionController{
		registry: registry,
	}
}

// HandleCreate registers a new transfer session for the sender.
// POST /api/transfer/v1/session
func (ctrl *SessionController) HandleCreate(c *gin.Context) {
	sender := participantID(c)
	if sender == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	var request types.CreateSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		tool.DefaultLogger.Errorf("[Session] Failed to parse create request: %v", err)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}

	snap, err := ctrl.registry.CreateSession(sender, participantName(c), request.FileName, request.FileSize, request.FileType)
	if err != nil {
		tool.DefaultLogger.Errorf("[Session] Create failed: %v", err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.CreateSessionResponse{
		SessionCode: snap.Code,
		ExpiresIn:   int64(snap.ExpiresAt.Sub(snap.CreatedAt).Seconds()),
	}))
}

// HandleJoin binds the receiver to an existing session by code.
// POST /api/transfer/v1/session/join
func (ctrl *SessionController) HandleJoin(c *gin.Context) {
	receiver := participantID(c)
	if receiver == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	var request types.JoinSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}

	snap, err := ctrl.registry.JoinSession(request.SessionCode, receiver, participantName(c))
	if err != nil {
		tool.DefaultLogger.Errorf("[Session] Join %s failed: %v", request.SessionCode, err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.JoinSessionResponse{
		FileName:     snap.FileName,
		FileSize:     snap.FileSize,
		FileType:     snap.FileType,
		PeerNickname: snap.SenderNickname,
	}))
}

// HandleStart authorizes the transfer. Sender only.
// POST /api/transfer/v1/session/:code/start
func (ctrl *SessionController) HandleStart(c *gin.Context) {
	sender := participantID(c)
	if sender == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	code := c.Param("code")
	if _, err := ctrl.registry.StartTransfer(code, sender); err != nil {
		tool.DefaultLogger.Errorf("[Session] Start %s failed: %v", code, err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandlePoll returns the authoritative session state. This is the
// reconciliation endpoint of record; push events are only hints.
// GET /api/transfer/v1/session/:code
func (ctrl *SessionController) HandlePoll(c *gin.Context) {
	code := c.Param("code")
	snap, err := ctrl.registry.GetSession(code)
	if err != nil {
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(snap))
}

// HandleCancel cancels the session. Idempotent: cancelling a session that is
// already terminal reports success.
// DELETE /api/transfer/v1/session/:code
func (ctrl *SessionController) HandleCancel(c *gin.Context) {
	actor := participantID(c)
	if actor == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	code := c.Param("code")
	if err := ctrl.registry.CancelSession(code, actor); err != nil {
		tool.DefaultLogger.Errorf("[Session] Cancel %s failed: %v", code, err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
