package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/storage"
	"github.com/moyoez/codedrop/tool"
)

type HistoryController struct {
	store *storage.Store
}

func NewHistoryController(store *storage.Store) *HistoryController {
	return &HistoryController{
		store: store,
	}
}

// HandleList returns a participant's transfer history, newest first.
// GET /api/transfer/v1/history?participant=xxx&limit=50
func (ctrl *HistoryController) HandleList(c *gin.Context) {
	participant := c.Query("participant")
	if participant == "" {
		participant = participantID(c)
	}
	if participant == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: participant"))
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid limit"))
			return
		}
		limit = n
	}

	records, err := ctrl.store.ListByParticipant(participant, limit)
	if err != nil {
		tool.DefaultLogger.Errorf("[History] List for %s failed: %v", participant, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read history"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(records))
}
