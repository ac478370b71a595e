package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/session-api/pkg/errors"
)

// Message is the body shape every route answers with.
type Message struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Valid   *bool  `json:"valid,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// OK responds with HTTP 200 and a message body.
func OK(c *gin.Context, body Message) {
	JSON(c, http.StatusOK, body)
}

// Error sends an error response converting the error to the common structure.
// Internal errors never expose their cause to the client.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if err != nil {
		_ = c.Error(err)
	}
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = appErrors.ErrInternal.Message
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Message{Message: message})
}

// Bool returns a pointer to b for optional body fields.
func Bool(b bool) *bool {
	return &b
}
