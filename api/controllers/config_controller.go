package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/types"
)

// HandlePolicyGet returns the server transfer policy. Clients fetch this
// once and treat it as read-only; in particular chunkSize is the server's
// call, not the sender's.
// GET /api/transfer/v1/config
func HandlePolicyGet(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy := registry.Policy()
		c.JSON(http.StatusOK, types.PolicyResponse{
			MaxFileSize:          policy.MaxFileSize,
			ChunkSize:            policy.ChunkSize,
			SessionExpireMinutes: int(policy.ExpireAfter.Minutes()),
		})
	}
}
