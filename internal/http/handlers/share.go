package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimpacket-backend/internal/http/response"
	"github.com/yungbote/claimpacket-backend/internal/modules/reports/delivery"
)

type ShareResolver interface {
	ResolveShareLink(ctx context.Context, token string) (*delivery.ResolvedLink, error)
}

// ShareHandler serves the unauthenticated links embedded in delivery emails.
type ShareHandler struct {
	links ShareResolver
}

func NewShareHandler(links ShareResolver) *ShareHandler {
	return &ShareHandler{links: links}
}

// GET /share/packets/:token
func (h *ShareHandler) OpenPacket(c *gin.Context) {
	link, err := h.links.ResolveShareLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondPipelineError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, link.PDFURL)
}
