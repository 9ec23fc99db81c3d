package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

type AdminController struct {
	Auth *services.AuthService
}

func NewAdminController(auth *services.AuthService) *AdminController {
	return &AdminController{Auth: auth}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login -> POST /api/auth/login
func (ac *AdminController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	res, err := ac.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", res)
}

// ListUsers -> GET /api/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	admins, err := ac.Auth.ListAdmins(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of admins", admins)
}

// CreateUser -> POST /api/admin/users
func (ac *AdminController) CreateUser(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	admin, err := ac.Auth.CreateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Admin created successfully", admin)
}

// ChangePassword -> PUT /api/admin/users/:id
func (ac *AdminController) ChangePassword(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if id != middlewares.AdminID(c) {
		utils.RespondError(c, utils.PermissionDenied("You can only change your own password"))
		return
	}
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	if err := ac.Auth.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Password updated successfully", nil)
}

// DeleteUser -> DELETE /api/admin/users/:id, body {"password": "..."}
func (ac *AdminController) DeleteUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	actingID := middlewares.AdminID(c)
	if err := ac.Auth.VerifyPassword(ctx, actingID, req.Password); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := ac.Auth.DeleteAdmin(ctx, id, actingID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Admin deleted successfully", nil)
}
