// seed-admin bootstraps a fresh database: it creates the head office branch
// (with the default chart of accounts) when no branch exists yet, then
// creates or re-hashes the admin console user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/haloaquvit/aquvit_backend/config"
	"github.com/haloaquvit/aquvit_backend/models"
	"github.com/haloaquvit/aquvit_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "aquvitAdmin"
	adminName     = "Aquvit Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var branch models.Branch
	err := db.WithContext(ctx).Model(&models.Branch{}).First(&branch).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup branch: %v\n", err)
			os.Exit(1)
		}
		created, err := models.CreateBranch(ctx, &models.NewBranch{Name: "Kantor Pusat"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create branch: %v\n", err)
			os.Exit(1)
		}
		branch = *created
		fmt.Printf("created branch %q (id %d) with default chart of accounts\n", branch.Name, branch.ID)
	}

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: adminUsername,
			Name:     adminName,
			Password: hashedStr,
			Role:     models.UserRoleAdmin,
			BranchId: branch.ID,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id %d)\n", adminUsername, u.ID)
		return
	}

	// Existing admin: refresh password hash and keep it active.
	updates := map[string]interface{}{
		"password":  hashedStr,
		"role":      models.UserRoleAdmin,
		"is_active": true,
	}
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("updated admin user %q (id %d)\n", adminUsername, existing.ID)
}
