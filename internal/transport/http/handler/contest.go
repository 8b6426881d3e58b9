package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"contest-tracker/internal/app"
	"contest-tracker/internal/transport/http/response"
)

type ContestHandler struct {
	contestService *app.ContestService
}

func NewContestHandler(contestService *app.ContestService) *ContestHandler {
	return &ContestHandler{contestService: contestService}
}

func (h *ContestHandler) List(c *gin.Context) {
	contests, err := h.contestService.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "list contests failed")
		return
	}

	out := make([]ContestSummary, 0, len(contests))
	for i := range contests {
		out = append(out, newContestSummary(&contests[i]))
	}
	response.OK(c, out)
}

func (h *ContestHandler) Retrieve(c *gin.Context) {
	id, ok := contestID(c)
	if !ok {
		return
	}

	contest, err := h.contestService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "get contest failed")
		return
	}
	response.OK(c, newContestDetail(contest))
}

func (h *ContestHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req app.ContestInput
	if !bindJSON(c, &req) {
		return
	}

	contest, err := h.contestService.Create(c.Request.Context(), user, req)
	if err != nil {
		writeError(c, err, "create contest failed")
		return
	}
	response.Created(c, newContestDetail(contest))
}

func (h *ContestHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := contestID(c)
	if !ok {
		return
	}

	var req app.ContestInput
	if !bindJSON(c, &req) {
		return
	}

	contest, err := h.contestService.Update(c.Request.Context(), user, id, req)
	if err != nil {
		writeError(c, err, "update contest failed")
		return
	}
	response.OK(c, newContestDetail(contest))
}

func (h *ContestHandler) PartialUpdate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := contestID(c)
	if !ok {
		return
	}

	var req app.ContestPatch
	if !bindJSON(c, &req) {
		return
	}

	contest, err := h.contestService.PartialUpdate(c.Request.Context(), user, id, req)
	if err != nil {
		writeError(c, err, "update contest failed")
		return
	}
	response.OK(c, newContestDetail(contest))
}

func (h *ContestHandler) Destroy(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := contestID(c)
	if !ok {
		return
	}

	if err := h.contestService.Delete(c.Request.Context(), user, id); err != nil {
		writeError(c, err, "delete contest failed")
		return
	}
	response.NoContent(c)
}

func (h *ContestHandler) Audit(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := contestID(c)
	if !ok {
		return
	}

	entries, err := h.contestService.ListAudit(c.Request.Context(), user, id)
	if err != nil {
		writeError(c, err, "list contest audit failed")
		return
	}
	response.OK(c, entries)
}

// contestID parses the :id path segment; ids that cannot exist are reported as 404.
func contestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, msgNotFound)
		return 0, false
	}
	return uint(id), true
}
