package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/dashboard"
	"github.com/ddaros/financas/internal/extraction"
	"github.com/ddaros/financas/internal/forecast"
	"github.com/ddaros/financas/internal/gcsuploader"
	infraBQ "github.com/ddaros/financas/internal/infra/bigquery"
	"github.com/ddaros/financas/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "upload":
		runUpload(log)
	case "extract":
		runExtract(log)
	case "forecast":
		runForecast(log)
	case "dashboard":
		runDashboard(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Financas CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  upload     Upload a statement file to GCS and register the document")
	fmt.Println("  extract    Run the extraction pipeline over an uploaded document")
	fmt.Println("  forecast   Generate forecast rows for an owner")
	fmt.Println("  dashboard  Print the spending summary for an owner")
	fmt.Println("  inspect    Inspect a document and its transactions")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner ID the document belongs to")
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local statement file")
	mimeType := fs.String("mime", "application/pdf", "MIME type of the file")
	fs.Parse(os.Args[2:])

	if *owner == "" || *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -owner ID -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	storage := gcsuploader.NewGCSStorageService()

	gcsURI, err := storage.Upload(ctx, *bucketName, *objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	docRepo, err := infraBQ.NewDocumentRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	doc := &infraBQ.DocumentRow{
		DocumentID:       uuid.New().String(),
		OwnerID:          *owner,
		GCSURI:           gcsURI,
		OriginalFilename: filepath.Base(*filePath),
		FileMimeType:     *mimeType,
	}
	if err := docRepo.InsertDocument(ctx, doc); err != nil {
		log.Fatal().Err(err).Msg("Failed to register document")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, gcsURI)
	fmt.Printf("Document ID: %s\n", doc.DocumentID)
}

func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner ID the document belongs to")
	documentID := fs.String("document-id", "", "Document ID to extract")
	fs.Parse(os.Args[2:])

	if *owner == "" || *documentID == "" {
		log.Fatal().Msg("Usage: cli extract -owner ID -document-id ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txRepo, err := infraBQ.NewTransactionRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer txRepo.Close()

	docRepo, err := infraBQ.NewDocumentRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	doc, err := docRepo.GetDocument(ctx, *owner, *documentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load document")
	}
	if doc == nil {
		log.Fatal().Msg("Document not found")
	}
	if doc.GCSURI == "" {
		log.Fatal().Msg("Document has no GCS URI")
	}

	extractor := extraction.NewStatementExtractionPipeline(
		docRepo,
		gcsuploader.NewGCSStorageService(),
		extraction.NewGeminiCaller(),
		txRepo,
	)

	result, err := extractor.Execute(ctx, &extraction.PipelineState{
		OwnerID:    *owner,
		DocumentID: doc.DocumentID,
		GCSURI:     doc.GCSURI,
		MimeType:   doc.FileMimeType,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	fmt.Printf("\n=== Extraction Result ===\n")
	fmt.Printf("Run ID:   %s\n", result.RunID)
	if result.BankName != "" {
		fmt.Printf("Bank:     %s\n", result.BankName)
	}
	fmt.Printf("Rejected: %d\n", len(result.Rejected))
	fmt.Printf("\n=== Candidates (%d) ===\n", len(result.Candidates))
	for i, c := range result.Candidates {
		marker := " "
		if c.Preselected {
			marker = "*"
		}
		fmt.Printf("%s %d. %s\n", marker, i+1, c.Transaction.Description)
		fmt.Printf("     Date:   %s\n", c.Transaction.DateIncurred.Format("2006-01-02"))
		fmt.Printf("     Amount: %.2f %s\n", c.Transaction.Amount, c.Transaction.Currency)
		fmt.Printf("     Match:  %s\n", c.Status)
	}
	fmt.Println("\nCandidates marked * are preselected for saving.")
}

func runForecast(log zerolog.Logger) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner ID to generate forecasts for")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: --owner is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txRepo, err := infraBQ.NewTransactionRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer txRepo.Close()

	created, err := forecast.Generate(ctx, txRepo, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Forecast generation failed")
	}

	fmt.Printf("Created %d forecast transactions.\n", created)
}

func runDashboard(log zerolog.Logger) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner ID to summarize")
	month := fs.Int("month", 0, "Month to filter (1-12, 0 for all)")
	year := fs.Int("year", 0, "Year to filter (0 for all)")
	fs.Parse(os.Args[2:])

	if *owner == "" {
		log.Fatal().Msg("Error: --owner is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	txRepo, err := infraBQ.NewTransactionRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer txRepo.Close()

	txs, err := txRepo.ListByOwner(ctx, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	summary := dashboard.Aggregate(txs, dashboard.PeriodFilter{Month: *month, Year: *year})

	fmt.Println("\n=== Spending Summary ===")
	fmt.Printf("Total spent:  %.2f\n", summary.TotalSpent)
	fmt.Printf("Transactions: %d\n", summary.Count)
	fmt.Printf("Average:      %.2f\n", summary.AvgAmount)
	fmt.Printf("Essentials:   %.2f\n", summary.EssentialsTotal)

	fmt.Println("\nBy category:")
	for _, b := range summary.ByCategory {
		fmt.Printf("  %-20s %10.2f\n", b.Name, b.Value)
	}
	fmt.Println("\nBy behavior:")
	for _, b := range summary.ByBehaviorClass {
		fmt.Printf("  %-20s %10.2f\n", b.Name, b.Value)
	}
	fmt.Println("\nBy month:")
	for _, m := range summary.ByMonth {
		fmt.Printf("  %s %10.2f\n", m.Month, m.Value)
	}
	fmt.Println()
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner ID the document belongs to")
	documentID := fs.String("document-id", "", "Document ID to inspect")
	fs.Parse(os.Args[2:])

	if *owner == "" || *documentID == "" {
		log.Fatal().Msg("Usage: cli inspect -owner ID -document-id ID")
	}

	ctx := logger.WithContext(context.Background(), log)

	docRepo, err := infraBQ.NewDocumentRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	doc, err := docRepo.GetDocument(ctx, *owner, *documentID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load document")
	}
	if doc == nil {
		log.Fatal().Msg("Document not found")
	}

	fmt.Println("\n=== Document Details ===")
	fmt.Printf("ID:       %s\n", doc.DocumentID)
	fmt.Printf("Owner:    %s\n", doc.OwnerID)
	fmt.Printf("GCS URI:  %s\n", doc.GCSURI)
	fmt.Printf("Filename: %s\n", doc.OriginalFilename)
	fmt.Printf("Uploaded: %s\n", doc.UploadTS)
	fmt.Printf("Status:   %s\n", doc.ParsingStatus)
	if doc.BankName.Valid {
		fmt.Printf("Bank:     %s\n", doc.BankName.StringVal)
	}

	txRepo, err := infraBQ.NewTransactionRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer txRepo.Close()

	all, err := txRepo.ListByOwner(ctx, *owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	count := 0
	fmt.Println("\n=== Transactions ===")
	for _, txn := range all {
		if txn.DocumentID != *documentID {
			continue
		}
		count++
		fmt.Printf("\n%d. %s\n", count, txn.Description)
		fmt.Printf("   Date:   %s\n", txn.DateIncurred.Format("2006-01-02"))
		fmt.Printf("   Amount: %.2f %s\n", txn.Amount, txn.Currency)
		if txn.Category != "" {
			fmt.Printf("   Category: %s\n", txn.Category)
		}
		if txn.IsInstallment() {
			fmt.Printf("   Installment: %d/%d\n", txn.InstallmentCurrent, txn.InstallmentTotal)
		}
	}
	if count == 0 {
		fmt.Println("(none)")
	}
	fmt.Println()
}
