package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"moneybook/internal/daterange"
	apperrors "moneybook/internal/errors"
	"moneybook/internal/ledger"
	"moneybook/internal/models"
	"moneybook/internal/pagination"
	"moneybook/internal/services"
	"moneybook/internal/validator"
)

// TransactionHandler handles transaction and transfer requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	accountService     services.AccountServicer
	categoryService    services.CategoryServicer
	auditService       services.AuditServicer
	now                func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transactionService services.TransactionServicer,
	accountService services.AccountServicer,
	categoryService services.CategoryServicer,
	auditService services.AuditServicer,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		accountService:     accountService,
		categoryService:    categoryService,
		auditService:       auditService,
		now:                time.Now,
	}
}

// ListQuery holds the transaction list query parameters on top of the filter.
type ListQuery struct {
	Period string `form:"period"`
	pagination.PageRequest
}

// ListTransactions returns the filtered journal with transfers merged into
// one line each
// @Summary     List transactions
// @Description Filter the journal by date, account, category, kind and text
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from        query string false "Start date (YYYY-MM-DD)"
// @Param       to          query string false "End date (YYYY-MM-DD)"
// @Param       period      query string false "current, previous, 7, 30 or all"
// @Param       account_id  query string false "Account ID"
// @Param       category_id query string false "Category ID"
// @Param       type        query string false "expense, income or transfer"
// @Param       search      query string false "Payee or note text"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Items per page"
// @Success     200 {object} pagination.PageResponse[ledger.Item] "Journal page"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter ledger.Filter
	var query ListQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to must be YYYY-MM-DD and type one of expense, income, transfer"))
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if filter.From == "" && filter.To == "" {
		rng, err := daterange.ForPeriod(query.Period, h.now())
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		filter.From, filter.To = rng.From, rng.To
	}

	ctx := c.Request.Context()
	txs, err := h.transactionService.QueryTransactionsFiltered(ctx, userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accounts, err := h.accountService.GetAccounts(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categories, err := h.categoryService.GetCategories(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := ledger.DisplayItems(txs, accounts, categories)
	c.JSON(http.StatusOK, pagination.Slice(items, query.PageRequest))
}

// GetTransaction returns one stored row
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// CreateTransaction records an expense, an income or a transfer
// @Summary     Create transaction
// @Description A body with type "transfer" writes both legs at once
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body validator.TransactionInput true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, ok := h.bindTransaction(c)
	if !ok {
		return
	}

	if in.Type == models.TransactionTypeTransfer {
		h.saveTransfer(c, userID, in, http.StatusCreated)
		return
	}
	h.saveTransaction(c, userID, in, "CREATE_TRANSACTION", http.StatusCreated)
}

// UpdateTransaction rewrites an expense or income row
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                     true "Transaction ID"
// @Param       request body validator.TransactionInput true "Transaction details"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Transfer legs are edited through the transfer"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, ok := h.bindTransaction(c)
	if !ok {
		return
	}
	if in.Type == models.TransactionTypeTransfer {
		respondWithError(c, apperrors.ErrTransferLegNotEditable)
		return
	}

	in.ID = c.Param("id")
	h.saveTransaction(c, userID, in, "UPDATE_TRANSACTION", http.StatusOK)
}

// DeleteTransaction removes a single row
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} DeleteResponse "deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, DeleteResponse{Result: string(services.DeleteResultDeleted)})
}

// UpdateTransfer rewrites both legs of a transfer
// @Summary     Update transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       transfer_id path string                     true "Transfer ID"
// @Param       request     body validator.TransactionInput true "Transfer details"
// @Success     200 {object} services.TransferResult "Transfer updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /transfers/{transfer_id} [put]
func (h *TransactionHandler) UpdateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var in validator.TransactionInput
	if !bindJSON(c, &in) {
		return
	}
	in.Type = models.TransactionTypeTransfer
	in.TransferID = c.Param("transfer_id")
	if fields := validator.ValidateTransaction(in); len(fields) > 0 {
		respondValidation(c, fields)
		return
	}

	h.saveTransfer(c, userID, in, http.StatusOK)
}

// DeleteTransfer removes every leg of a transfer
// @Summary     Delete transfer
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       transfer_id path string true "Transfer ID"
// @Success     200 {object} DeleteResponse "deleted"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{transfer_id} [delete]
func (h *TransactionHandler) DeleteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID := c.Param("transfer_id")
	if err := h.transactionService.DeleteTransactionsByTransferID(c.Request.Context(), userID, transferID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, DeleteResponse{Result: string(services.DeleteResultDeleted)})
}

func (h *TransactionHandler) bindTransaction(c *gin.Context) (validator.TransactionInput, bool) {
	var in validator.TransactionInput
	if !bindJSON(c, &in) {
		return in, false
	}
	if fields := validator.ValidateTransaction(in); len(fields) > 0 {
		respondValidation(c, fields)
		return in, false
	}
	return in, true
}

func (h *TransactionHandler) saveTransaction(c *gin.Context, userID string, in validator.TransactionInput, action string, status int) {
	row := in.ToTransaction()
	if strings.TrimSpace(in.Currency) == "" {
		// The account's currency applies.
		row.Currency = ""
	}

	saved, err := h.transactionService.UpsertTransaction(c.Request.Context(), userID, row)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, action, "transaction", saved.ID, c.ClientIP(),
		map[string]any{"type": string(saved.Type), "amount": saved.Amount, "currency": saved.Currency})

	c.JSON(status, gin.H{"transaction": saved})
}

func (h *TransactionHandler) saveTransfer(c *gin.Context, userID string, in validator.TransactionInput, status int) {
	amount, _ := in.Amount.Units()
	result, err := h.transactionService.UpsertTransfer(c.Request.Context(), userID, services.TransferParams{
		TransferID:    in.TransferID,
		OutID:         in.OutID,
		InID:          in.InID,
		Date:          in.Date,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		Note:          strings.TrimSpace(in.Note),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "CREATE_TRANSFER"
	if status == http.StatusOK {
		action = "UPDATE_TRANSFER"
	}
	h.auditService.Log(userID, action, "transfer", result.TransferID, c.ClientIP(),
		map[string]any{"from": in.FromAccountID, "to": in.ToAccountID, "amount": amount})

	c.JSON(status, gin.H{"transfer": result})
}
