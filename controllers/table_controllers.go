package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/softex1/tably-paket1/middlewares"
	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

type TableController struct {
	Tables *services.TableService
	Auth   *services.AuthService
}

func NewTableController(tables *services.TableService, auth *services.AuthService) *TableController {
	return &TableController{Tables: tables, Auth: auth}
}

type tableResponse struct {
	models.Table
	QRURL string `json:"qr_url"`
}

func (tc *TableController) withQR(t models.Table) tableResponse {
	return tableResponse{Table: t, QRURL: tc.Tables.QRURL(t.Code)}
}

// GetByCode -> GET /api/tables/qr/:code
func (tc *TableController) GetByCode(c *gin.Context) {
	table, err := tc.Tables.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table found", table)
}

// List -> GET /api/admin/tables
func (tc *TableController) List(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	out := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, tc.withQR(t))
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", out)
}

// Create -> POST /api/admin/tables
func (tc *TableController) Create(c *gin.Context) {
	var req services.TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	table, err := tc.Tables.CreateTable(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", tc.withQR(*table))
}

// Update -> PATCH /api/admin/tables/:id
func (tc *TableController) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req services.TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	table, err := tc.Tables.UpdateTable(c.Request.Context(), id, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated successfully", tc.withQR(*table))
}

// Delete -> DELETE /api/admin/tables/:id, body {"password": "..."}
func (tc *TableController) Delete(c *gin.Context) {
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
	if err := tc.Auth.VerifyPassword(ctx, middlewares.AdminID(c), req.Password); err != nil {
		utils.RespondError(c, err)
		return
	}
	table, err := tc.Tables.DeleteTable(ctx, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", table)
}
