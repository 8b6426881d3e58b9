package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/app"
	"contest-tracker/internal/model"
	"contest-tracker/internal/transport/http/response"
)

const (
	ContextUserKey = "current_user"
	tokenKeyword   = "Token"
)

type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*model.User, error)
}

// TokenAuth requires an "Authorization: Token <key>" header naming an active user.
func TokenAuth(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := strings.Fields(c.GetHeader("Authorization"))
		if len(fields) == 0 || !strings.EqualFold(fields[0], tokenKeyword) {
			unauthorized(c, "Authentication credentials were not provided.")
			return
		}
		switch len(fields) {
		case 1:
			unauthorized(c, "Invalid token header. No credentials provided.")
			return
		case 2:
		default:
			unauthorized(c, "Invalid token header. Token string should not contain spaces.")
			return
		}

		user, err := auth.AuthenticateToken(c.Request.Context(), fields[1])
		if err != nil {
			switch {
			case errors.Is(err, app.ErrInvalidToken):
				unauthorized(c, "Invalid token.")
			case errors.Is(err, app.ErrUserInactive):
				unauthorized(c, "User inactive or deleted.")
			default:
				log.WithError(err).Error("authenticate token failed")
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "authentication failed")
				c.Abort()
			}
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by TokenAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", tokenKeyword)
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, message)
	c.Abort()
}
