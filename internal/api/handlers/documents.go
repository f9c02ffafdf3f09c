// Package handlers implements the HTTP endpoints: document upload and
// extraction, transaction review and maintenance, forecasts, the dashboard
// and job status.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/gcsuploader"
	"github.com/ddaros/financas/internal/infra/bigquery"
	"github.com/ddaros/financas/internal/jobs"
)

// DocumentStore is the document persistence the handler needs;
// *bigquery.DocumentRepository satisfies it.
type DocumentStore interface {
	InsertDocument(ctx context.Context, row *bigquery.DocumentRow) error
	GetDocument(ctx context.Context, ownerID, documentID string) (*bigquery.DocumentRow, error)
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*bigquery.DocumentRow, error)
}

// DocumentsHandler handles document upload and extraction endpoints.
type DocumentsHandler struct {
	docs      DocumentStore
	storage   gcsuploader.StorageService
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

func NewDocumentsHandler(docs DocumentStore, storage gcsuploader.StorageService, publisher jobs.Publisher, bucket string, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		docs:      docs,
		storage:   storage,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// ListDocuments handles GET /api/documents.
func (h *DocumentsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	documents, err := h.docs.ListDocumentsByOwner(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// CreateUploadURL handles POST /api/documents/upload-url. It reserves a
// document ID and an object name; the client then PUTs the bytes to the
// returned upload endpoint.
func (h *DocumentsHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	objectName := fmt.Sprintf("uploads/%s/%s", time.Now().Format("2006/01/02"), uuid.NewString()+"-"+req.Filename)
	gcsURI := fmt.Sprintf("gs://%s/%s", h.bucket, objectName)
	documentID := uuid.NewString()

	uploadURL := fmt.Sprintf("/api/documents/upload/%s?object_name=%s&filename=%s",
		documentID, url.QueryEscape(objectName), url.QueryEscape(req.Filename))

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"upload_url":  uploadURL,
		"gcs_uri":     gcsURI,
		"object_name": objectName,
		"document_id": documentID,
	})
}

// UploadDocument handles POST/PUT /api/documents/upload/{documentId},
// streaming the request body to storage and recording the document row.
func (h *DocumentsHandler) UploadDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	objectName := r.URL.Query().Get("object_name")
	if objectName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object_name is required")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	gcsURI, err := h.storage.Upload(ctx, h.bucket, objectName, r.Body)
	if err != nil {
		h.log.Error().Err(err).Str("document_id", documentID).Msg("Failed to upload file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = gcsuploader.ExtractFilename(gcsURI)
	}
	if idx := strings.Index(filename, "?"); idx > 0 {
		filename = filename[:idx]
	}
	filename = filepath.Base(filename)

	doc := &bigquery.DocumentRow{
		DocumentID:       documentID,
		OwnerID:          owner,
		GCSURI:           gcsURI,
		OriginalFilename: filename,
		FileMimeType:     contentType,
		UploadTS:         time.Now(),
		ParsingStatus:    bigquery.DocStatusUploaded,
	}

	if err := h.docs.InsertDocument(ctx, doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert document metadata")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save document metadata")
		return
	}

	h.log.Info().
		Str("document_id", documentID).
		Str("gcs_uri", gcsURI).
		Msg("File uploaded")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"document_id": documentID,
		"gcs_uri":     gcsURI,
		"status":      "uploaded",
	})
}

// EnqueueExtraction handles POST /api/documents/extract. The document must
// belong to the requesting owner; the actual extraction happens on the job
// worker.
func (h *DocumentsHandler) EnqueueExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocumentID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	doc, err := h.docs.GetDocument(ctx, owner, req.DocumentID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load document")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load document")
		return
	}
	if doc == nil {
		middleware.WriteError(w, http.StatusNotFound, "Document not found")
		return
	}

	job := &jobs.ExtractStatementJob{
		OwnerID:    owner,
		DocumentID: doc.DocumentID,
		GCSURI:     doc.GCSURI,
		MimeType:   doc.FileMimeType,
	}

	if err := h.publisher.PublishExtractStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("document_id", doc.DocumentID).
		Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"document_id": doc.DocumentID,
		"status":      string(job.Status),
	})
}
