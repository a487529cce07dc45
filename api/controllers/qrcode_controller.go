package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// HandleSessionQR returns a PNG QR code of the session code so it can be
// shared out-of-band by scanning instead of reading six digits aloud.
// GET /api/transfer/v1/session/:code/qr?size=200
func HandleSessionQR(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if _, err := registry.GetSession(code); err != nil {
			c.JSON(statusForSessionError(err), tool.FastReturnError(err.Error()))
			return
		}

		size := parseSize(c.Query("size"))
		if size <= 0 {
			size = defaultQRSize
		}
		if size > maxQRSize {
			size = maxQRSize
		}

		png, err := qrcode.Encode(code, qrcode.Medium, size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
