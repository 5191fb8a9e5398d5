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

	"github.com/joho/godotenv"

	"github.com/hiteshgeek/query-builder-sub002/accounts"
	"github.com/hiteshgeek/query-builder-sub002/api"
	"github.com/hiteshgeek/query-builder-sub002/builder"
	"github.com/hiteshgeek/query-builder-sub002/config"
	"github.com/hiteshgeek/query-builder-sub002/confirm"
	"github.com/hiteshgeek/query-builder-sub002/db"
	"github.com/hiteshgeek/query-builder-sub002/schema"
	"github.com/hiteshgeek/query-builder-sub002/tools"
)

func init() {
	godotenv.Load()
}

func logStartupInfo() {
	fmt.Println("=== Query Builder Admin ===")
	fmt.Printf("Port:            %s\n", config.Cfg.Port)
	fmt.Printf("Database:        %s\n", config.Cfg.DSN)
	fmt.Printf("Request timeout: %ds\n", config.Cfg.RequestTimeout)
	fmt.Printf("Conditions:      %d max per statement\n", config.Cfg.MaxConditions)

	warnings := 0
	if config.Cfg.APIKey == "" {
		fmt.Println("[WARN] No API key set - authentication disabled")
		warnings++
	} else {
		fmt.Println("[OK]   Authentication enabled")
	}

	if len(config.Cfg.CORSOrigins) == 0 {
		fmt.Println("[INFO] CORS disabled (no origins configured)")
	} else {
		fmt.Printf("[OK]   CORS origins: %v\n", config.Cfg.CORSOrigins)
	}

	if config.Cfg.AuditLogEnabled {
		fmt.Printf("[OK]   Audit logging: %s\n", config.Cfg.AuditLogPath)
	} else {
		fmt.Println("[INFO] Audit logging disabled")
	}

	if warnings > 0 {
		fmt.Printf("\n[!] %d security warning(s) - review before production\n", warnings)
	}
	fmt.Println()
}

func main() {
	logStartupInfo()

	if err := tools.InitAuditLogger(); err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	conn, err := db.Open(config.Cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	ctx := context.Background()

	store := accounts.NewStore(conn, config.Cfg.MinPasswordLen)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize account store: %v", err)
	}

	snap, err := schema.Load(ctx, conn)
	if err != nil {
		log.Fatalf("Failed to load schema snapshot: %v", err)
	}
	holder := schema.NewHolder(snap)

	b := builder.New(snap, config.Cfg.MaxConditions)
	b.OnChange(func(sql string) {
		tools.Logger.Debug("statement changed", "statement", sql)
	})

	srv := api.NewServer(conn, holder, b, confirm.New(), store)

	app := http.NewServeMux()
	srv.RegisterRoutes(app)

	// Apply middleware chain: panic recovery -> logging -> timeout -> cors -> rate limit -> auth -> handler
	handler := tools.PanicRecoveryMiddleware(
		tools.LoggingMiddleware(
			tools.TimeoutMiddleware(
				tools.CORSMiddleware(
					tools.RateLimitMiddleware(
						tools.AuthMiddleware(app))))))

	server := &http.Server{
		Addr:    config.Cfg.Port,
		Handler: handler,
	}

	go func() {
		fmt.Printf("Listening on %s\n", config.Cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := conn.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	tools.CloseAuditLogger()

	fmt.Println("Server stopped")
}
