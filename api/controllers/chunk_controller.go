package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
	"github.com/moyoez/codedrop/types"
)

type ChunkController struct {
	registry *session.Registry
}

func NewChunkController(registry *session.Registry) *ChunkController {
	return &ChunkController{
		registry: registry,
	}
}

// HandleUpload ingests one raw chunk. The body is the payload; session code
// and index travel as query parameters so the body stays opaque bytes.
// POST /api/transfer/v1/chunk/upload?sessionCode=xxx&chunkIndex=0
func (ctrl *ChunkController) HandleUpload(c *gin.Context) {
	code := c.Query("sessionCode")
	indexStr := c.Query("chunkIndex")
	if code == "" || indexStr == "" {
		tool.DefaultLogger.Errorf("[Chunk] Missing required parameters: sessionCode=%s, chunkIndex=%s", code, indexStr)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
		return
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid chunkIndex"))
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		tool.DefaultLogger.Errorf("[Chunk] Failed to read chunk body: %v", err)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Failed to read request body"))
		return
	}

	transferred, percent, err := ctrl.registry.IngestChunk(code, index, payload)
	if err != nil {
		tool.DefaultLogger.Errorf("[Chunk] Ingest failed: session=%s index=%d: %v", code, index, err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.ChunkUploadResponse{
		TransferredBytes: transferred,
		ProgressPercent:  percent,
	}))
}

// HandleComplete records the sender's explicit completion signal.
// POST /api/transfer/v1/session/:code/complete
func (ctrl *ChunkController) HandleComplete(c *gin.Context) {
	sender := participantID(c)
	if sender == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing "+HeaderParticipantID+" header"))
		return
	}

	code := c.Param("code")
	snap, err := ctrl.registry.CompleteTransfer(code, sender)
	if err != nil {
		tool.DefaultLogger.Errorf("[Chunk] Complete %s failed: %v", code, err)
		c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.ChunkUploadResponse{
		TransferredBytes: snap.TransferredBytes,
		ProgressPercent:  snap.ProgressPercent,
	}))
}
