package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneybook/internal/ledger"
	"moneybook/internal/services"
	"moneybook/internal/validator"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService     services.AccountServicer
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, transactionService services.TransactionServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// ListAccounts returns every account with its derived balance
// @Summary     List accounts
// @Description Get the authenticated user's accounts with balances
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  ledger.AccountBalance "Accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	accounts, err := h.accountService.GetAccounts(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	txs, err := h.transactionService.GetTransactions(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances := ledger.AccountBalances(accounts, txs)
	out := make([]ledger.AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, ledger.AccountBalance{Account: acc, Balance: balances[acc.ID]})
	}

	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

// GetAccount returns one account
// @Summary     Get account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CreateAccount creates an account
// @Summary     Create account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body validator.AccountInput true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	h.saveAccount(c, "", http.StatusCreated)
}

// UpdateAccount rewrites an account
// @Summary     Update account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Account ID"
// @Param       request body validator.AccountInput true "Account details"
// @Success     200 {object} models.Account "Account updated"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	h.saveAccount(c, c.Param("id"), http.StatusOK)
}

func (h *AccountHandler) saveAccount(c *gin.Context, id string, status int) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var in validator.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	if id != "" {
		in.ID = id
	}
	if fields := validator.ValidateAccount(in); len(fields) > 0 {
		respondValidation(c, fields)
		return
	}

	account, err := h.accountService.UpsertAccount(c.Request.Context(), userID, in.ToAccount())
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "CREATE_ACCOUNT"
	if id != "" {
		action = "UPDATE_ACCOUNT"
	}
	h.auditService.Log(userID, action, "account", account.ID, c.ClientIP(),
		map[string]any{"name": account.Name, "currency": account.Currency})

	c.JSON(status, gin.H{"account": account})
}

// DeleteAccount deletes an account, or archives it while transactions still
// reference it
// @Summary     Delete account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} DeleteResponse "deleted or archived"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	result, err := h.accountService.DeleteAccount(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ACCOUNT", "account", id, c.ClientIP(),
		map[string]any{"result": string(result)})

	c.JSON(http.StatusOK, DeleteResponse{Result: string(result)})
}
