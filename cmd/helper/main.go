package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"adboard/internal/config"
	"adboard/internal/db"
	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Operator CLI for account recovery: bootstrap the admin account or
// reset a user's password without going through the mail flow.
func main() {
	var log = logger.New("helper")
	log.Info("🔑 Starting account helper CLI")

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("❌ Failed to load configuration", err)
		return
	}

	if err := db.Connect(cfg); err != nil {
		log.Error("❌ Failed to connect to database", err)
		return
	}
	defer db.Close()

	database := db.GetDB()
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter 'a' to ensure the admin account, 'p' to reset a password, or 'q' to quit: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		if choice == "q" {
			log.Info("👋 Exiting helper CLI")
			break
		}

		switch choice {
		case "a":
			if err := models.CreateAdminFromEnv(database); err != nil {
				log.Error("❌ Failed to create admin account", err)
			} else {
				log.Success("✅ Admin account present")
			}
		case "p":
			fmt.Print("Username: ")
			username, _ := reader.ReadString('\n')
			username = strings.TrimSpace(username)

			fmt.Print("New password: ")
			password, _ := reader.ReadString('\n')
			password = strings.TrimSpace(password)

			var user models.User
			if err := database.Where("username = ?", username).First(&user).Error; err != nil {
				log.Error("❌ User not found", err)
				continue
			}

			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				log.Error("❌ Failed to hash password", err)
				continue
			}

			if err := database.Model(&user).UpdateColumn("password", string(hashed)).Error; err != nil {
				log.Error("❌ Failed to update password", err)
				continue
			}
			log.Success("✅ Password updated for %s", username)
		default:
			log.Warn("⚠️ Invalid choice. Please enter 'a', 'p', or 'q'.")
		}
	}
}
