package main

import (
	"flag"

	"go-minimart-pos/internal/config"
	applog "go-minimart-pos/internal/logger"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := applog.New(cfg.Log)
	defer log.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(*email)
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash and store; rotating the token version logs out every session
	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(user.ID, hashed.Password); err != nil {
		log.Fatal("failed to update password", zap.Error(err))
	}
	if err := db.Model(&model.User{}).Where("id = ?", user.ID).Update("token_version", uuid.New().String()).Error; err != nil {
		log.Fatal("failed to revoke sessions", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
