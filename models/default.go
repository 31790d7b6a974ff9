package models

import (
	"context"

	"github.com/haloaquvit/aquvit_backend/utils"
	"gorm.io/gorm"
)

type defaultAccount struct {
	Code      string
	Name      string
	MainType  AccountMainType
	IsHeader  bool
	System    bool
	SortOrder int
}

// Default chart seeded per branch. Income Summary (3300) is intentionally
// absent, the closing run creates it lazily on first use.
var defaultAccounts = []defaultAccount{
	{Code: "1000", Name: "Aset", MainType: AccountMainTypeAsset, IsHeader: true, SortOrder: 10},
	{Code: "1100", Name: "Kas", MainType: AccountMainTypeAsset, SortOrder: 11},
	{Code: "1200", Name: "Bank", MainType: AccountMainTypeAsset, SortOrder: 12},
	{Code: "1300", Name: "Piutang Usaha", MainType: AccountMainTypeAsset, SortOrder: 13},
	{Code: "1400", Name: "Persediaan", MainType: AccountMainTypeAsset, SortOrder: 14},
	{Code: "2000", Name: "Kewajiban", MainType: AccountMainTypeLiability, IsHeader: true, SortOrder: 20},
	{Code: "2100", Name: "Hutang Usaha", MainType: AccountMainTypeLiability, SortOrder: 21},
	{Code: "3000", Name: "Ekuitas", MainType: AccountMainTypeEquity, IsHeader: true, SortOrder: 30},
	{Code: "3100", Name: "Modal Pemilik", MainType: AccountMainTypeEquity, SortOrder: 31},
	{Code: SystemCodeRetainedEarnings, Name: NameRetainedEarnings, MainType: AccountMainTypeEquity, System: true, SortOrder: 32},
	{Code: "4000", Name: "Pendapatan", MainType: AccountMainTypeRevenue, IsHeader: true, SortOrder: 40},
	{Code: "4100", Name: "Pendapatan Penjualan", MainType: AccountMainTypeRevenue, SortOrder: 41},
	{Code: "4900", Name: "Pendapatan Lain-lain", MainType: AccountMainTypeRevenue, SortOrder: 49},
	{Code: "5000", Name: "Beban", MainType: AccountMainTypeExpense, IsHeader: true, SortOrder: 50},
	{Code: "5100", Name: "Harga Pokok Penjualan", MainType: AccountMainTypeExpense, SortOrder: 51},
	{Code: "5200", Name: "Beban Operasional", MainType: AccountMainTypeExpense, SortOrder: 52},
	{Code: "5300", Name: "Beban Gaji", MainType: AccountMainTypeExpense, SortOrder: 53},
}

// CreateDefaultAccounts seeds the chart for a new branch inside tx.
func CreateDefaultAccounts(tx *gorm.DB, ctx context.Context, branchId int) ([]Account, error) {

	var accounts []Account
	parentByType := make(map[AccountMainType]int)

	for _, def := range defaultAccounts {
		isHeader := utils.NewFalse()
		if def.IsHeader {
			isHeader = utils.NewTrue()
		}
		isSystem := utils.NewFalse()
		if def.System {
			isSystem = utils.NewTrue()
		}

		account := Account{
			BranchId:        branchId,
			Code:            def.Code,
			Name:            def.Name,
			MainType:        def.MainType,
			NormalBalance:   NormalBalanceFor(def.MainType),
			IsHeader:        isHeader,
			ParentId:        parentByType[def.MainType],
			Level:           1,
			SortOrder:       def.SortOrder,
			IsActive:        utils.NewTrue(),
			IsSystemDefault: isSystem,
		}
		if !def.IsHeader {
			account.Level = 2
		}

		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if def.IsHeader {
			parentByType[def.MainType] = account.ID
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
