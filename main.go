package main

import (
	"log"

	"bitbucket.org/parcelworks/valuation_backend/config"
	"bitbucket.org/parcelworks/valuation_backend/models"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading config from environment")
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	logger := config.GetLogger()
	logger.Info("valuation backend ready")
}
