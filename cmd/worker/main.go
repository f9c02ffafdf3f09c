package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ddaros/financas/internal/extraction"
	"github.com/ddaros/financas/internal/gcsuploader"
	infraBQ "github.com/ddaros/financas/internal/infra/bigquery"
	"github.com/ddaros/financas/internal/jobs"
	"github.com/ddaros/financas/internal/jobs/inmemory"
	"github.com/ddaros/financas/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	bgCtx := logger.WithContext(context.Background(), log)

	txRepo, err := infraBQ.NewTransactionRepository(bgCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer txRepo.Close()

	docRepo, err := infraBQ.NewDocumentRepository(bgCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer docRepo.Close()

	// In production the queue would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	ctx, cancel := context.WithCancel(bgCtx)
	defer cancel()

	extractor := extraction.NewStatementExtractionPipeline(
		docRepo,
		gcsuploader.NewGCSStorageService(),
		extraction.NewGeminiCaller(),
		txRepo,
	)

	handler := func(ctx context.Context, job jobs.Job) error {
		extractJob, ok := job.(*jobs.ExtractStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", extractJob.JobID).
			Str("document_id", extractJob.DocumentID).
			Str("gcs_uri", extractJob.GCSURI).
			Msg("Processing extraction job")

		result, err := extractor.Execute(ctx, &extraction.PipelineState{
			OwnerID:    extractJob.OwnerID,
			DocumentID: extractJob.DocumentID,
			GCSURI:     extractJob.GCSURI,
			MimeType:   extractJob.MimeType,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", extractJob.JobID).
				Str("document_id", extractJob.DocumentID).
				Msg("Extraction pipeline failed")
			return err
		}

		extractJob.Result = result

		log.Info().
			Str("job_id", extractJob.JobID).
			Str("document_id", extractJob.DocumentID).
			Int("candidates", len(result.Candidates)).
			Msg("Extraction pipeline completed")

		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
