package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/haloaquvit/aquvit_backend/workflow"
)

// writeError maps workflow and model errors onto HTTP statuses. Unknown
// errors become 500 and land in the error logger.
func writeError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrInsufficientStock),
		errors.Is(err, utils.ErrAlreadyClosed),
		errors.Is(err, utils.ErrNotClosed),
		errors.Is(err, utils.ErrPeriodClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

// branchAndYear reads the (branch_id, year) pair every closing endpoint
// needs, falling back to the authenticated user's branch.
func branchAndYear(c *gin.Context) (int, int, bool) {
	branchId := queryInt(c, "branch_id")
	if branchId == 0 {
		branchId, _ = utils.GetBranchIdFromContext(c.Request.Context())
	}
	year := queryInt(c, "year")
	if branchId <= 0 || year <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id and year are required"})
		return 0, 0, false
	}
	return branchId, year, true
}

func loginHandler(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	info, err := models.Login(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func listBranchesHandler(c *gin.Context) {
	branches, err := models.GetBranches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func createBranchHandler(c *gin.Context) {
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	branch, err := models.CreateBranch(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func getBranchHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	branch, err := models.GetBranch(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func updateBranchHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	branch, err := models.UpdateBranch(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

func listProductsHandler(c *gin.Context) {
	products, err := models.GetProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProductHandler(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func getProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func updateProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func listAccountsHandler(c *gin.Context) {
	branchId := queryInt(c, "branch_id")
	if branchId == 0 {
		branchId, _ = utils.GetBranchIdFromContext(c.Request.Context())
	}
	if branchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}
	accounts, err := models.GetAccounts(c.Request.Context(), branchId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func createAccountHandler(c *gin.Context) {
	var input models.NewAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	account, err := models.CreateAccount(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func createUserHandler(c *gin.Context) {
	if role, _ := utils.GetUserRoleFromContext(c.Request.Context()); role != string(models.UserRoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func consumeStockHandler(c *gin.Context) {
	var input workflow.ConsumeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	outcome, err := workflow.ConsumeFIFO(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func restoreStockHandler(c *gin.Context) {
	var input workflow.RestoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, err)
		return
	}
	outcome, err := workflow.RestoreFIFO(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func movementFilterFromQuery(c *gin.Context) *models.MovementFilter {
	filter := &models.MovementFilter{
		ProductId: queryInt(c, "product_id"),
		BranchId:  queryInt(c, "branch_id"),
		Type:      models.MovementType(c.Query("type")),
		Reason:    models.MovementReason(c.Query("reason")),
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "offset"),
	}
	if y := queryInt(c, "year"); y > 0 {
		from, to := utils.FiscalYearRange(y)
		filter.FromDate = &from
		filter.ToDate = &to
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.FromDate = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			filter.ToDate = &end
		}
	}
	return filter
}

func listMovementsHandler(c *gin.Context) {
	movements, total, err := models.GetStockMovements(c.Request.Context(), movementFilterFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "movements": movements})
}

func getMovementHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	movement, err := models.GetStockMovement(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func voidMovementHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	outcome, err := workflow.VoidMovement(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func listBatchesHandler(c *gin.Context) {
	productId := queryInt(c, "product_id")
	branchId := queryInt(c, "branch_id")
	if productId <= 0 || branchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and branch_id are required"})
		return
	}
	includeEmpty := c.Query("include_empty") == "true"
	batches, err := models.GetBatches(c.Request.Context(), productId, branchId, includeEmpty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

func batchValuationHandler(c *gin.Context) {
	productId := queryInt(c, "product_id")
	branchId := queryInt(c, "branch_id")
	if productId <= 0 || branchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and branch_id are required"})
		return
	}
	valuation, err := models.GetBatchValuation(c.Request.Context(), productId, branchId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation)
}

type closingRequest struct {
	BranchId int `json:"branch_id"`
	Year     int `json:"year" binding:"required"`
}

func (req *closingRequest) resolve(c *gin.Context) bool {
	if req.BranchId == 0 {
		req.BranchId, _ = utils.GetBranchIdFromContext(c.Request.Context())
	}
	if req.BranchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return false
	}
	return true
}

func previewClosingHandler(c *gin.Context) {
	branchId, year, ok := branchAndYear(c)
	if !ok {
		return
	}
	preview, err := workflow.PreviewClosingEntry(c.Request.Context(), branchId, year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func executeClosingHandler(c *gin.Context) {
	var req closingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	if !req.resolve(c) {
		return
	}
	if err := utils.BranchLock(c.Request.Context(), req.BranchId, "closing", "handlers", "executeClosingHandler"); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	outcome, err := workflow.ExecuteClosingEntry(c.Request.Context(), req.BranchId, req.Year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func voidClosingHandler(c *gin.Context) {
	var req closingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, err)
		return
	}
	if !req.resolve(c) {
		return
	}
	if err := utils.BranchLock(c.Request.Context(), req.BranchId, "closing", "handlers", "voidClosingHandler"); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err := workflow.VoidClosingEntry(c.Request.Context(), req.BranchId, req.Year); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "voided"})
}

func listClosingPeriodsHandler(c *gin.Context) {
	branchId := queryInt(c, "branch_id")
	if branchId == 0 {
		branchId, _ = utils.GetBranchIdFromContext(c.Request.Context())
	}
	if branchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}
	periods, err := workflow.ListClosingPeriods(c.Request.Context(), branchId)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

func listJournalEntriesHandler(c *gin.Context) {
	branchId := queryInt(c, "branch_id")
	if branchId == 0 {
		branchId, _ = utils.GetBranchIdFromContext(c.Request.Context())
	}
	if branchId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}
	entries, err := models.GetJournalEntries(c.Request.Context(), branchId, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func getJournalEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := models.GetJournalEntry(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
