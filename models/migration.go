package models

import (
	"log"

	"github.com/haloaquvit/aquvit_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{},
		&Branch{},
		&ClosingPeriod{},
		&InventoryBatch{},
		&JournalEntry{}, &JournalEntryLine{},
		&Product{}, &ProductStock{},
		&StockMovement{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
