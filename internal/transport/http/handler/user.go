package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contest-tracker/internal/app"
	"contest-tracker/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req app.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "create user failed")
		return
	}
	response.Created(c, newUserProfile(user))
}

func (h *UserHandler) Token(c *gin.Context) {
	var req app.TokenInput
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.userService.IssueToken(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "issue token failed")
		return
	}
	response.OK(c, gin.H{"token": token})
}

func (h *UserHandler) Me(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	response.OK(c, newUserProfile(user))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req app.UpdateProfileInput
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, err, "update profile failed")
		return
	}
	response.OK(c, newUserProfile(updated))
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err, "list users failed")
		return
	}

	profiles := make([]UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, newUserProfile(&users[i]))
	}
	response.OK(c, profiles)
}

// MethodNotAllowed answers verbs a route exists for but does not accept.
func MethodNotAllowed(allowed ...string) gin.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(c *gin.Context) {
		if allow != "" {
			c.Header("Allow", allow)
		}
		response.Error(c, http.StatusMethodNotAllowed, response.CodeMethodNotAllowed,
			`Method "`+c.Request.Method+`" not allowed.`)
	}
}
