package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireStockPostingLock serializes batch mutations per (branch, product)
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireStockPostingLock(tx *gorm.DB, branchId int, productId int) error {
	lockName := fmt.Sprintf("stock:%d:%d", branchId, productId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire stock lock for branch_id=%d product_id=%d", branchId, productId)
	}
	return nil
}

// ReleaseStockPostingLock frees the advisory lock. GET_LOCK survives commit
// and rollback, so this must run while the transaction is still open.
func ReleaseStockPostingLock(tx *gorm.DB, branchId int, productId int) {
	lockName := fmt.Sprintf("stock:%d:%d", branchId, productId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireClosingLock serializes year-end closing per branch.
func AcquireClosingLock(tx *gorm.DB, branchId int) error {
	lockName := fmt.Sprintf("closing:%d", branchId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire closing lock for branch_id=%d", branchId)
	}
	return nil
}

// ReleaseClosingLock frees the advisory lock. Same constraint as
// ReleaseStockPostingLock: must run before the transaction finishes.
func ReleaseClosingLock(tx *gorm.DB, branchId int) {
	lockName := fmt.Sprintf("closing:%d", branchId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
