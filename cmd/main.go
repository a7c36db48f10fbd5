/**
 * @description
 * This is the main entry point for the account-management-service. Its
 * responsibility is to initialize all components: configuration, the
 * PostgreSQL pool, the RabbitMQ producer and consumer, the client-management
 * client, the policy engines, and the HTTP server.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Wires the policy engines with the repository, the client directory, and
 *   the event producer.
 * - Starts the client.deleted consumer and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and
 *   external clients.
 * - pgxpool for database connection, godotenv for local config, and rabbitmq
 *   for messaging.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/andeanbank/account-management-service/internal/api"
	"github.com/andeanbank/account-management-service/internal/app"
	"github.com/andeanbank/account-management-service/internal/config"
	"github.com/andeanbank/account-management-service/internal/store"
	"github.com/andeanbank/account-management-service/pkg/clientdirectory"
	"github.com/andeanbank/account-management-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 50
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up dependencies.
	accountRepo := store.NewPostgresAccountRepository(dbpool)
	clientDirectory := clientdirectory.NewClient(cfg.ClientDirectoryURL)

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ producer: %v", err)
	}
	defer producer.Close()

	// Wire the policy engines and the query façade.
	assetService := app.NewAssetAccountService(accountRepo, producer)
	passiveService := app.NewPassiveAccountService(accountRepo, clientDirectory, producer)
	usecases := app.NewAccountUseCases(assetService, passiveService, accountRepo)
	eventHandler := app.NewAccountEventHandler(accountRepo)

	// Setup RabbitMQ consumer.
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	// Start consuming messages in a goroutine.
	go func() {
		log.Printf("Starting consumer for event 'client.deleted'...")
		err := consumer.Consume("client_events", "account_service_client_deleted", "client.deleted", eventHandler.HandleClientDeletedEvent)
		if err != nil {
			log.Printf("Consumer error: %v", err) // Log as non-fatal
		}
	}()

	// Setup and start HTTP server.
	router := api.NewRouter(cfg, usecases, assetService, passiveService)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Account management service is running with API and event consumer.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down account-management-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
