package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"github.com/haloaquvit/aquvit_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end regression over the batch ledger and the year-end close:
// restore builds cost layers, consume drains them FIFO, void reverses a
// movement, and execute/void of the closing entry round-trips every
// account balance.
func TestFifoConsumeAndClosingRoundTrip(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "aquvit_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()

	// Movements record who posted them.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	branch, err := models.CreateBranch(ctx, &models.NewBranch{Name: "Cabang Test"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{Sku: "AQV-001", Name: "Galon 19L"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	// Two opening cost layers: 100 @ 10 then 50 @ 12.
	for _, layer := range []struct{ qty, cost string }{{"100", "10"}, {"50", "12"}} {
		cost := decimal.RequireFromString(layer.cost)
		_, err := workflow.RestoreFIFO(ctx, &workflow.RestoreInput{
			ProductId: product.ID,
			BranchId:  branch.ID,
			Quantity:  decimal.RequireFromString(layer.qty),
			UnitCost:  &cost,
			Reason:    models.MovementReasonOpeningStock,
		})
		if err != nil {
			t.Fatalf("restore layer %s@%s: %v", layer.qty, layer.cost, err)
		}
	}

	// FIFO consume across both layers: 100*10 + 20*12 = 1240.
	outcome, err := workflow.ConsumeFIFO(ctx, &workflow.ConsumeInput{
		ProductId: product.ID,
		BranchId:  branch.ID,
		Quantity:  decimal.RequireFromString("120"),
	})
	if err != nil {
		t.Fatalf("consume 120: %v", err)
	}
	if !outcome.TotalCost.Equal(decimal.RequireFromString("1240")) {
		t.Fatalf("consume total cost = %s, want 1240", outcome.TotalCost)
	}
	if !outcome.NewOnHand.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("on-hand after consume = %s, want 30", outcome.NewOnHand)
	}
	if len(outcome.ConsumedBatches) != 2 {
		t.Fatalf("expected 2 drained layers, got %d", len(outcome.ConsumedBatches))
	}

	// The advisory lock is released with the transaction, the next caller
	// on the same (branch, product) must not wait out the GET_LOCK timeout.
	lockFree := func(name string) int {
		t.Helper()
		var free int
		if err := db.Raw("SELECT IS_FREE_LOCK(?)", name).Scan(&free).Error; err != nil {
			t.Fatalf("IS_FREE_LOCK(%s): %v", name, err)
		}
		return free
	}
	if free := lockFree(fmt.Sprintf("stock:%d:%d", branch.ID, product.ID)); free != 1 {
		t.Fatal("stock advisory lock still held after consume")
	}

	// Over-consume must fail atomically: nothing drained, mirror untouched.
	_, err = workflow.ConsumeFIFO(ctx, &workflow.ConsumeInput{
		ProductId: product.ID,
		BranchId:  branch.ID,
		Quantity:  decimal.RequireFromString("31"),
	})
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	onHand, err := models.GetProductStockQty(ctx, product.ID, branch.ID)
	if err != nil {
		t.Fatalf("stock qty: %v", err)
	}
	if !onHand.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("on-hand after failed consume = %s, want 30", onHand)
	}

	// Void the consumption: a compensating IN lands, the original row goes.
	voided, err := workflow.VoidMovement(ctx, outcome.MovementId)
	if err != nil {
		t.Fatalf("void movement: %v", err)
	}
	if voided.ReversalMovementId == 0 {
		t.Fatal("void must report the compensating movement")
	}
	if _, err := models.GetStockMovement(ctx, outcome.MovementId); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("original movement must be gone, got %v", err)
	}
	onHand, err = models.GetProductStockQty(ctx, product.ID, branch.ID)
	if err != nil {
		t.Fatalf("stock qty: %v", err)
	}
	if !onHand.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("on-hand after void = %s, want 150", onHand)
	}

	// A costless restore into an empty ledger books the product's catalog
	// cost, not zero.
	priced, err := models.CreateProduct(ctx, &models.NewProduct{
		Sku:       "AQV-002",
		Name:      "Tutup Galon",
		CostPrice: decimal.RequireFromString("7500"),
	})
	if err != nil {
		t.Fatalf("create priced product: %v", err)
	}
	fallback, err := workflow.RestoreFIFO(ctx, &workflow.RestoreInput{
		ProductId: priced.ID,
		BranchId:  branch.ID,
		Quantity:  decimal.RequireFromString("10"),
		Reason:    models.MovementReasonOpeningStock,
	})
	if err != nil {
		t.Fatalf("restore priced product: %v", err)
	}
	if !fallback.UnitCost.Equal(decimal.RequireFromString("7500")) {
		t.Fatalf("fallback unit cost = %s, want cost price 7500", fallback.UnitCost)
	}

	// Year-end close: put figures on the default chart directly.
	year := 2025
	setBalance := func(code, balance string) {
		t.Helper()
		err := db.Exec("UPDATE accounts SET balance = ? WHERE branch_id = ? AND code = ?",
			decimal.RequireFromString(balance), branch.ID, code).Error
		if err != nil {
			t.Fatalf("set balance %s: %v", code, err)
		}
	}
	setBalance("4100", "500000")
	setBalance("5100", "350000")

	preview, err := workflow.PreviewClosingEntry(ctx, branch.ID, year)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.NetIncome.Equal(decimal.RequireFromString("150000")) {
		t.Fatalf("preview net income = %s, want 150000", preview.NetIncome)
	}
	if preview.AlreadyClosed {
		t.Fatal("year must not be closed yet")
	}

	closed, err := workflow.ExecuteClosingEntry(ctx, branch.ID, year)
	if err != nil {
		t.Fatalf("execute closing: %v", err)
	}
	if !closed.NetIncome.Equal(decimal.RequireFromString("150000")) {
		t.Fatalf("closing net income = %s, want 150000", closed.NetIncome)
	}
	if !strings.HasPrefix(closed.EntryNumber, fmt.Sprintf("JC-%d-", year)) {
		t.Fatalf("unexpected entry number %q", closed.EntryNumber)
	}
	if free := lockFree(fmt.Sprintf("closing:%d", branch.ID)); free != 1 {
		t.Fatal("closing advisory lock still held after execute")
	}

	balanceOf := func(code string) decimal.Decimal {
		t.Helper()
		var account models.Account
		err := db.Where("branch_id = ? AND code = ?", branch.ID, code).First(&account).Error
		if err != nil {
			t.Fatalf("load account %s: %v", code, err)
		}
		return account.Balance
	}
	if b := balanceOf("4100"); !b.IsZero() {
		t.Fatalf("revenue balance after close = %s, want 0", b)
	}
	if b := balanceOf("5100"); !b.IsZero() {
		t.Fatalf("expense balance after close = %s, want 0", b)
	}
	if b := balanceOf(models.SystemCodeIncomeSummary); !b.IsZero() {
		t.Fatalf("income summary after close = %s, want 0", b)
	}
	if b := balanceOf(models.SystemCodeRetainedEarnings); !b.Equal(decimal.RequireFromString("150000")) {
		t.Fatalf("retained earnings after close = %s, want 150000", b)
	}

	// Second close of the same year must refuse.
	if _, err := workflow.ExecuteClosingEntry(ctx, branch.ID, year); !errors.Is(err, utils.ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}

	// Void restores the pre-close balances and reopens the year.
	if err := workflow.VoidClosingEntry(ctx, branch.ID, year); err != nil {
		t.Fatalf("void closing: %v", err)
	}
	if b := balanceOf("4100"); !b.Equal(decimal.RequireFromString("500000")) {
		t.Fatalf("revenue after void = %s, want 500000", b)
	}
	if b := balanceOf("5100"); !b.Equal(decimal.RequireFromString("350000")) {
		t.Fatalf("expense after void = %s, want 350000", b)
	}
	if b := balanceOf(models.SystemCodeRetainedEarnings); !b.IsZero() {
		t.Fatalf("retained earnings after void = %s, want 0", b)
	}
	period, err := models.GetClosingPeriod(ctx, branch.ID, year)
	if err != nil {
		t.Fatalf("closing period lookup: %v", err)
	}
	if period != nil {
		t.Fatal("closing period must be deleted on void")
	}

	// Voiding an open year must refuse.
	if err := workflow.VoidClosingEntry(ctx, branch.ID, year); !errors.Is(err, utils.ErrNotClosed) {
		t.Fatalf("expected ErrNotClosed, got %v", err)
	}

	// Re-close works after the void.
	if _, err := workflow.ExecuteClosingEntry(ctx, branch.ID, year); err != nil {
		t.Fatalf("re-execute closing: %v", err)
	}

	// Entry numbers run per branch: a second branch closing the same year
	// starts its own JC sequence at 0001.
	branch2, err := models.CreateBranch(ctx, &models.NewBranch{Name: "Cabang Dua"})
	if err != nil {
		t.Fatalf("create second branch: %v", err)
	}
	err = db.Exec("UPDATE accounts SET balance = 90000 WHERE branch_id = ? AND code = ?", branch2.ID, "4100").Error
	if err != nil {
		t.Fatalf("set second branch revenue: %v", err)
	}
	closed2, err := workflow.ExecuteClosingEntry(ctx, branch2.ID, year)
	if err != nil {
		t.Fatalf("execute closing for second branch: %v", err)
	}
	if closed2.EntryNumber != fmt.Sprintf("JC-%d-0001", year) {
		t.Fatalf("second branch entry number = %q, want JC-%d-0001", closed2.EntryNumber, year)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("aquvit-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("aquvit-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=aquvit_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
