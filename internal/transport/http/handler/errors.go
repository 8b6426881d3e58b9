package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/app"
	"contest-tracker/internal/model"
	"contest-tracker/internal/transport/http/middleware"
	"contest-tracker/internal/transport/http/response"
)

const (
	msgNotFound           = "Not found."
	msgInvalidCredentials = "Unable to log in with provided credentials."
)

// writeError maps service errors onto the response envelope. fallback is the
// message used for unexpected failures.
func writeError(c *gin.Context, err error, fallback string) {
	var validationErr *app.ValidationError
	var permissionErr *app.PermissionError

	switch {
	case errors.As(err, &validationErr):
		response.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, app.ErrInvalidCredential):
		response.FieldErrors(c, http.StatusBadRequest, response.CodeInvalidCredentials, "invalid credentials",
			map[string][]string{app.NonFieldErrors: {msgInvalidCredentials}})
	case errors.As(err, &permissionErr):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, permissionErr.Message)
	case errors.Is(err, app.ErrContestNotFound), errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, msgNotFound)
	default:
		log.WithFields(log.Fields{
			"request_id": c.GetString(middleware.ContextRequestIDKey),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// bindJSON decodes the body into dst and writes a 400 when it is malformed.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validationErr *app.ValidationError
		if errors.As(err, &validationErr) {
			response.ValidationFailed(c, validationErr.Fields)
			return false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			response.ValidationFailed(c, map[string][]string{
				typeErr.Field: {"invalid value for " + typeErr.Field},
			})
			return false
		}
		response.ValidationFailed(c, map[string][]string{
			app.NonFieldErrors: {"invalid request payload"},
		})
		return false
	}
	return true
}

// requireUser fetches the user set by the token middleware.
func requireUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}
	return user, true
}
