package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/config"
	"github.com/picknic/picknic-backend/internal/db"
	"github.com/picknic/picknic-backend/internal/model"
	"github.com/picknic/picknic-backend/internal/repository"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Reward{}, &model.User{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	canSeed, err := shouldSeed(gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("rewards already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	rewardRepo := repository.NewRewardRepository(gdb)
	for _, rw := range buildSeedRewards() {
		rw := rw
		if err := rewardRepo.Create(ctx, &rw); err != nil {
			return fmt.Errorf("insert reward %q: %w", rw.Name, err)
		}
	}

	userRepo := repository.NewUserRepository(gdb)
	for _, u := range buildSeedUsers() {
		u := u
		if err := userRepo.Create(ctx, &u); err != nil {
			return fmt.Errorf("insert user %q: %w", u.UserID, err)
		}
	}

	log.Printf("seed complete")
	return nil
}

func buildSeedRewards() []model.Reward {
	return []model.Reward{
		{Name: "Americano (tall)", Description: "Coffee chain gift voucher", Cost: 100, Stock: 50},
		{Name: "Convenience store 3,000 voucher", Description: "Usable nationwide", Cost: 300, Stock: 30},
		{Name: "Movie ticket", Description: "Any weekday screening", Cost: 500, Stock: 20},
		{Name: "Chicken set", Description: "Delivery coupon", Cost: 800, Stock: 10},
		{Name: "Wireless earbuds", Description: "Monthly raffle grand prize", Cost: 2000, Stock: 1},
	}
}

func buildSeedUsers() []model.User {
	return []model.User{
		{UserID: "seed-admin", Nickname: "Admin", IsSystemAccount: true},
		{UserID: "seed-user-1", Nickname: "Haneul", SchoolName: "Seoul High School"},
		{UserID: "seed-user-2", Nickname: "Jiwoo", SchoolName: "Busan Girls' High School"},
		{UserID: "seed-user-3", Nickname: "Minjun", SchoolName: "Seoul High School"},
	}
}

func shouldSeed(gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.Model(&model.Reward{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count rewards: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
