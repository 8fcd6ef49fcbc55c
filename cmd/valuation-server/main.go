// Factory cost valuation HTTP server
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironforge/factory-valuation/internal/valuation/httpapi"
	"github.com/ironforge/factory-valuation/internal/valuation/loader"
	"github.com/ironforge/factory-valuation/internal/valuation/store"
)

func main() {
	dbPath := flag.String("db", "data/valuation/valuation.db", "Path to SQLite database")
	addr := flag.String("addr", ":8080", "Address to serve the HTTP API on")
	importDump := flag.String("import-dump", "", "Load a prototype data dump JSON file and store it as a named configuration")
	importName := flag.String("import-name", "default", "Name to store the imported configuration under")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	database, err := store.OpenAndInit(ctx, *dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	configs := store.NewConfigStore(database)

	if *importDump != "" {
		logger.Info("importing prototype dump", "file", *importDump, "name", *importName)
		if err := importConfiguration(ctx, database, configs, *importDump, *importName); err != nil {
			logger.Error("failed to import prototype dump", "error", err)
			os.Exit(1)
		}
		logger.Info("prototype dump imported successfully")

		if flag.NArg() == 0 {
			return
		}
	}

	server := httpapi.NewServer(logger)

	logger.Info("starting valuation server", "addr", *addr, "db", *dbPath)
	httpServer := &http.Server{Addr: *addr, Handler: server}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}

func importConfiguration(ctx context.Context, database *store.DB, configs *store.ConfigStore, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading dump file: %w", err)
	}

	cfg, err := loader.LoadConfiguration(bytes.NewReader(data), loader.Policy{
		Name:             name,
		MachineTimeCost:  1,
		ResourceBaseCost: 1,
	})
	if err != nil {
		return fmt.Errorf("parsing prototype dump: %w", err)
	}

	if err := configs.Save(ctx, name, cfg); err != nil {
		return err
	}

	hash := sha256.Sum256(data)
	return database.RecordImport(ctx, name, path, hex.EncodeToString(hash[:]))
}
