package main

import (
	"context" // Import context
	"flag"    // Command line flags
	"os"      // Opening the CSV file

	"book_catalog/internal/config"   // Configuration
	"book_catalog/internal/db"       // Database connection
	"book_catalog/internal/importer" // CSV loader
	"book_catalog/internal/store"    // Catalog store

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for loading books.csv into the catalog
func main() {
	file := flag.String("file", "books.csv", "CSV file with isbn,title,author,year rows")
	batch := flag.Int("batch", importer.DefaultBatchSize, "rows per insert")
	flag.Parse()

	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	cfg.SetupLogger()

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	// Make sure the books table exists
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("%v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		logrus.Fatalf("failed to open %s: %v", *file, err)
	}
	defer f.Close()

	n, err := importer.Import(context.Background(), f, store.New(gdb), *batch)
	if err != nil {
		logrus.Fatalf("import failed after %d rows: %v", n, err)
	}
	logrus.WithField("file", *file).Infof("Imported %d rows", n)
}
