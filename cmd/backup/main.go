package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gradewatch/internal/config"
	"gradewatch/internal/database"
	"gradewatch/internal/repository"
	"gradewatch/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: gradebook_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	ctx := context.Background()
	migrations := database.EmbeddedMigrations()
	if cfg.MigrationsPath != "" {
		migrations = os.DirFS(cfg.MigrationsPath)
	}
	if err := db.RunMigrations(ctx, migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create backup service
	// No gradebook is attached: a running server would keep its cached state
	// and overwrite imported records, so imports here need the server stopped.
	backupService := service.NewBackupService(repository.NewSQLGradingStore(db), repository.NewStudentRepository(db), nil)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, backupService, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("gradebook_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}

	log.Printf("Exporting gradebook to: %s", outputPath)
	if err := backupService.Export(ctx, file); err != nil {
		file.Close()
		log.Fatalf("Export failed: %v", err)
	}
	if err := file.Close(); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	// Get file size
	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Printf("Export complete! File size: %.2f KB", float64(fileInfo.Size())/1024)
	}
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData bool) {
	file, err := os.Open(inputPath)
	if os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer file.Close()

	fmt.Println("NOTE: stop the GradeWatch server before importing. A running server keeps the")
	fmt.Println("gradebook in memory and its next write overwrites imported records.")
	fmt.Println("To import into a running server use POST /api/backup instead.")
	fmt.Print("Type 'yes' to continue: ")
	reader := bufio.NewReader(os.Stdin)
	if answer, _ := reader.ReadString('\n'); strings.TrimSpace(answer) != "yes" {
		log.Println("Import cancelled")
		return
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing grades, attendance and students. Type 'yes' to confirm: ")
		confirmation, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			log.Println("Import cancelled")
			return
		}
	}

	log.Printf("Importing gradebook from: %s", inputPath)
	if err := backupService.Import(ctx, file, clearData); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Import complete!")
}

func printUsage() {
	fmt.Println("GradeWatch Gradebook Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export gradebook to JSON file")
	fmt.Println("  backup import [options]    Import gradebook from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: gradebook_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("  Import writes straight to the database. Stop the server first, or use")
	fmt.Println("  POST /api/backup to import into a running server.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Export gradebook")
	fmt.Println("  backup export")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println()
	fmt.Println("  # Import gradebook (merge with existing data)")
	fmt.Println("  backup import -input backup.json")
	fmt.Println()
	fmt.Println("  # Import gradebook (replace all data)")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./gradewatch.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
