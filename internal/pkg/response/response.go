package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiError satisfies proxyutil's coded-error contract so the envelope
// carries the business code instead of a generic one.
type apiError struct {
	code uint32
	msg  string
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Code() uint32  { return e.code }

// Success writes the standard {code:0, msg:"", data:...} envelope.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes the envelope with a business error code. The HTTP status
// stays 200; clients dispatch on the code field.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, &apiError{code: uint32(code), msg: message})
}
