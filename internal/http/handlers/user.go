package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me
func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileInput
	if !bindJSON(c, &req) {
		return
	}
	me, err := uh.userService.UpdateMe(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /api/me/password
// body: { "old_password": "...", "new_password": "..." }
func (uh *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := uh.userService.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/me/avatar (multipart "file")
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	name, f, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()
	me, err := uh.userService.UploadAvatar(c.Request.Context(), name, f)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// GET /api/admin/users?page&limit&q&role
func (uh *UserHandler) AdminList(c *gin.Context) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", services.DefaultPageLimit)
	if !ok {
		return
	}
	out, err := uh.userService.AdminList(c.Request.Context(), services.UserQuery{
		Query: c.Query("q"),
		Role:  c.Query("role"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/admin/users/:id
func (uh *UserHandler) AdminGet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	u, err := uh.userService.AdminGet(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PATCH /api/admin/users/:id
// body: { "role": "admin" | "customer", "is_blocked": bool }
func (uh *UserHandler) AdminUpdate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.AdminUserUpdate
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// DELETE /api/admin/users/:id
func (uh *UserHandler) AdminDelete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := uh.userService.AdminDelete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
