// Package response writes the proxyutil JSON envelope all handlers
// share. Failures carry the real HTTP status on the wire, not a 200
// with an embedded code, so status-aware clients and proxies behave.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type statusErr struct {
	status uint32
	msg    string
}

func (e statusErr) Error() string {
	return e.msg
}

func (e statusErr) Code() uint32 {
	return e.status
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error fails the request with the given HTTP status; the envelope
// code mirrors the status.
func Error(c *gin.Context, status int, message string) {
	proxyutil.FailJson(c, status, statusErr{status: uint32(status), msg: message})
}
