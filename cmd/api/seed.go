package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/middleware"
	"venuebook/internal/pkg/jwt"
)

var seedPhone string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo owner with two venues and print a development token",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedPhone, "phone", "0611223344", "phone number of the demo owner")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	owner := domain.Owner{Name: "Demo owner", Phone: seedPhone}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&owner).Error
	if err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}
	if err := db.Where("phone = ?", seedPhone).First(&owner).Error; err != nil {
		return fmt.Errorf("reload owner: %w", err)
	}

	venues := []domain.Venue{
		{OwnerID: owner.ID, Name: "Five-a-side pitch", OpenTime: domain.NewClock(9, 0), CloseTime: domain.Midnight, HourlyPrice: 60},
		{OwnerID: owner.ID, Name: "Late padel court", OpenTime: domain.NewClock(18, 0), CloseTime: domain.NewClock(2, 0), HourlyPrice: 30},
	}
	var existing int64
	db.Model(&domain.Venue{}).Where("owner_id = ?", owner.ID).Count(&existing)
	if existing == 0 {
		if err := db.Create(&venues).Error; err != nil {
			return fmt.Errorf("seed venues: %w", err)
		}
		log.Info("venues created", zap.Int("count", len(venues)))
	}

	token, err := jwt.New(cfg.Auth.JWTSecret, 30*24*time.Hour).GenerateToken(owner.ID, middleware.RoleOwner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "owner %d (%s)\ntoken: %s\n", owner.ID, owner.Phone, token)
	return nil
}
