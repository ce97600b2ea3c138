package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// abortDetail writes the error body clients read: {"detail": message}.
func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// abortInternal hides err from the client and records it for the access log.
func abortInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	abortDetail(c, http.StatusInternalServerError, "internal server error")
}
