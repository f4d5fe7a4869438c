package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects mutating requests whose body is not declared as JSON.
// GET and DELETE carry no body on this API and pass through untouched.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// ParseMediaType strips parameters like "; charset=utf-8"
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))

			if err != nil || mt != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json.",
					},
				})
				return
			}
		}

		c.Next()
	}
}
