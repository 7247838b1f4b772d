package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

const userKey = "lifeboard.user"

// authRequired resolves the bearer token to a user and aborts with an auth
// error when it is missing or unknown.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(c, apperr.New(apperr.KindAuth, "missing bearer token"))
			c.Abort()
			return
		}

		user, err := s.userRepo.FindByToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}
