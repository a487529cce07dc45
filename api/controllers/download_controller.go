package controllers

import (
	"fmt"
	"net/http"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/store"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

// servedTTL bounds how long the one-shot guard remembers a served code. It
// only has to outlive the session itself.
const servedTTL = 3600 * time.Second

type DownloadController struct {
	registry *session.Registry
	chunks   *store.DiskStore
	served   *ttlworker.Cache[string, bool]
}

func NewDownloadController(registry *session.Registry, chunks *store.DiskStore) *DownloadController {
	return &DownloadController{
		registry: registry,
		chunks:   chunks,
		served:   ttlworker.NewCache[string, bool](servedTTL),
	}
}

// HandleDownload streams the assembled file to the receiver. One shot: the
// triggering transfer_completed hint may arrive twice or not at all, so the
// guard lives here rather than trusting the client.
// GET /api/transfer/v1/download/:code
func (ctrl *DownloadController) HandleDownload(c *gin.Context) {
	receiver := participantID(c)
	if receiver == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	code := c.Param("code")
	snap, err := ctrl.registry.GetSession(code)
	if err != nil {
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}
	if snap.ReceiverID != receiver {
		c.JSON(http.StatusForbidden, tool.FastReturnError("only the receiver may download"))
		return
	}
	if snap.Status != types.StatusCompleted {
		c.JSON(http.StatusConflict, tool.FastReturnError("session is not completed"))
		return
	}
	if ctrl.served.Get(code) {
		c.JSON(http.StatusGone, tool.FastReturnError("file already downloaded"))
		return
	}
	ctrl.served.Set(code, true)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.FileName))
	c.Header("Content-Length", fmt.Sprintf("%d", snap.FileSize))
	contentType := snap.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	written, err := ctrl.chunks.Assemble(code, snap.TotalChunks, c.Writer)
	if err != nil {
		// Headers are gone; all we can do is log, fail the session and let
		// the spool be reclaimed.
		tool.DefaultLogger.Errorf("[Download] Assemble failed for session %s after %d bytes: %v", code, written, err)
		ctrl.registry.FailSession(code, "chunk spool unreadable")
		return
	}

	tool.DefaultLogger.Infof("[Download] Served session %s: %s (%d bytes)", code, snap.FileName, written)
	if err := ctrl.chunks.Remove(code); err != nil {
		tool.DefaultLogger.Warnf("[Download] Failed to reclaim chunks for session %s: %v", code, err)
	}
}
