package models

type AccountMainType string

const (
	AccountMainTypeAsset     AccountMainType = "Asset"
	AccountMainTypeLiability AccountMainType = "Liability"
	AccountMainTypeEquity    AccountMainType = "Equity"
	AccountMainTypeRevenue   AccountMainType = "Revenue"
	AccountMainTypeExpense   AccountMainType = "Expense"
)

// IsNominal reports whether balances of this type reset to zero at year end.
func (t AccountMainType) IsNominal() bool {
	return t == AccountMainTypeRevenue || t == AccountMainTypeExpense
}

type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

type MovementType string

const (
	MovementTypeIn  MovementType = "IN"
	MovementTypeOut MovementType = "OUT"
)

type MovementReason string

const (
	MovementReasonPurchaseReceipt       MovementReason = "PURCHASE_RECEIPT"
	MovementReasonProductionConsumption MovementReason = "PRODUCTION_CONSUMPTION"
	MovementReasonSale                  MovementReason = "SALE"
	MovementReasonAdjustment            MovementReason = "ADJUSTMENT"
	MovementReasonRestoration           MovementReason = "RESTORATION"
	MovementReasonVoidReversal          MovementReason = "VOID_REVERSAL"
	MovementReasonOpeningStock          MovementReason = "OPENING_STOCK"
)

type MovementReferenceType string

const (
	MovementReferencePurchase   MovementReferenceType = "Purchase"
	MovementReferenceProduction MovementReferenceType = "Production"
	MovementReferenceSale       MovementReferenceType = "Sale"
	MovementReferenceAdjustment MovementReferenceType = "Adjustment"
	MovementReferenceMovement   MovementReferenceType = "StockMovement"
)

type JournalSourceType string

const (
	JournalSourceManual  JournalSourceType = "Manual"
	JournalSourceClosing JournalSourceType = "Closing"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleFinance UserRole = "finance"
	UserRoleStaff   UserRole = "staff"
)
