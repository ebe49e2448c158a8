package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneybook/internal/errors"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
)

// DataHandler handles whole-ledger export, import, reset and demo seeding.
type DataHandler struct {
	dataService  services.DataServicer
	auditService services.AuditServicer
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(dataService services.DataServicer, auditService services.AuditServicer) *DataHandler {
	return &DataHandler{dataService: dataService, auditService: auditService}
}

// Export downloads the ledger as JSON
// @Summary     Export ledger
// @Tags        data
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Snapshot "Snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /data/export [get]
func (h *DataHandler) Export(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.dataService.ExportData(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("moneybook-%s.json", snapshot.Meta.ExportedAt.UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, snapshot)
}

// Import replaces the ledger with the uploaded snapshot
// @Summary     Import ledger
// @Description Replaces all accounts, categories and transactions
// @Tags        data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.Snapshot true "Snapshot"
// @Success     200 {object} map[string]int "Imported counts"
// @Failure     400 {object} ErrorResponse "Invalid snapshot"
// @Router      /data/import [post]
func (h *DataHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var snapshot models.Snapshot
	if !bindJSON(c, &snapshot) {
		return
	}

	if err := h.dataService.ImportData(c.Request.Context(), userID, snapshot); err != nil {
		respondWithError(c, err)
		return
	}

	counts := map[string]int{}
	if snapshot.Complete() {
		counts["accounts"] = len(*snapshot.Accounts)
		counts["categories"] = len(*snapshot.Categories)
		counts["transactions"] = len(*snapshot.Transactions)
	}
	h.auditService.Log(userID, "IMPORT_DATA", "ledger", "", c.ClientIP(), map[string]any{
		"accounts":     counts["accounts"],
		"categories":   counts["categories"],
		"transactions": counts["transactions"],
	})

	c.JSON(http.StatusOK, gin.H{"imported": counts})
}

// Reset deletes every account, category and transaction
// @Summary     Reset ledger
// @Tags        data
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Ledger cleared"
// @Router      /data/reset [post]
func (h *DataHandler) Reset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.dataService.ResetAll(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RESET_DATA", "ledger", "", c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Ledger cleared"})
}

// Seed adds the demo accounts, categories and transactions
// @Summary     Seed demo data
// @Tags        data
// @Produce     json
// @Security    BearerAuth
// @Success     201 {object} map[string]string "Demo data added"
// @Router      /data/seed [post]
func (h *DataHandler) Seed(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.dataService.SeedDemoData(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SEED_DATA", "ledger", "", c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{"message": "Demo data added"})
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs returns the user's audit entries, newest first
// @Summary     Audit log
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Audit entries"
// @Router      /audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entries, err := h.auditService.List(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
