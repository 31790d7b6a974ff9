// stock-mirror-verify audits the denormalized product_stocks mirror against
// the sum of remaining batch quantities. It reports every (product, branch)
// pair whose mirror drifted and, with -fix, rewrites the mirror from the
// batch ledger.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/stock-mirror-verify [-fix]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/shopspring/decimal"
)

type mirrorDrift struct {
	ProductId int             `gorm:"column:product_id"`
	BranchId  int             `gorm:"column:branch_id"`
	Mirror    decimal.Decimal `gorm:"column:mirror"`
	Batches   decimal.Decimal `gorm:"column:batches"`
}

func main() {
	fix := flag.Bool("fix", false, "rewrite drifted mirrors from the batch ledger")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var drifts []mirrorDrift
	err := db.Raw(`
		SELECT ps.product_id,
		       ps.branch_id,
		       ps.quantity AS mirror,
		       COALESCE(b.total, 0) AS batches
		FROM product_stocks ps
		LEFT JOIN (
			SELECT product_id, branch_id, SUM(quantity) AS total
			FROM inventory_batches
			GROUP BY product_id, branch_id
		) b ON b.product_id = ps.product_id AND b.branch_id = ps.branch_id
		WHERE ps.quantity <> COALESCE(b.total, 0)`).Scan(&drifts).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to scan mirrors: %v\n", err)
		os.Exit(1)
	}

	if len(drifts) == 0 {
		fmt.Println("all stock mirrors match the batch ledger")
		return
	}

	for _, d := range drifts {
		fmt.Printf("drift: product %d branch %d mirror=%s batches=%s\n",
			d.ProductId, d.BranchId, d.Mirror.String(), d.Batches.String())
	}

	if !*fix {
		fmt.Printf("%d drifted mirror(s); rerun with -fix to repair\n", len(drifts))
		os.Exit(2)
	}

	for _, d := range drifts {
		err := db.Exec(
			"UPDATE product_stocks SET quantity = ? WHERE product_id = ? AND branch_id = ?",
			d.Batches, d.ProductId, d.BranchId,
		).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fix product %d branch %d: %v\n", d.ProductId, d.BranchId, err)
			os.Exit(1)
		}
	}
	fmt.Printf("repaired %d mirror(s)\n", len(drifts))
}
