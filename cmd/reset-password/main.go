package main

import (
	"context"
	"flag"
	"log"

	"go-utang-ledger/internal/config"
	"go-utang-ledger/internal/repository"
	"go-utang-ledger/internal/service"
	"go-utang-ledger/pkg/database"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "new password (min 8 characters)")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		flag.Usage()
		log.Fatal("❌ -email and a -password of at least 8 characters are required")
	}

	// 1. Load Env
	cfg := config.Load()

	// 2. Setup Database
	db := database.ConnectDB(cfg.DSN(), cfg.DBLogLevel)

	// 3. Reset and sign the user out everywhere
	auth := service.NewAuthService(repository.NewUserRepo(db), nil)
	if err := auth.ResetPassword(context.Background(), *email, *password); err != nil {
		log.Fatalf("❌ Failed to reset password for %s: %v", *email, err)
	}

	log.Printf("✅ Success! Password for %s has been reset; existing sessions were revoked", *email)
}
