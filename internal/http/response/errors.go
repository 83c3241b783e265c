package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimpacket-backend/internal/modules/reports/reporterr"
)

// RespondPipelineError writes err using the report pipeline's status and
// code mapping. Details let the caller retry without re-deriving state.
// Internal errors are not echoed verbatim.
func RespondPipelineError(c *gin.Context, err error) {
	ae := reporterr.ToAPI(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	msg := ae.Error()
	if ae.Status >= http.StatusInternalServerError && ae.Code == "internal" {
		msg = "internal error"
	}
	_ = c.Error(err)
	c.JSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    ae.Code,
			Details: ae.Details,
		},
	})
}
