package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/jobs"
)

// JobsHandler exposes job progress to the upload UI.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs, optionally filtered by document_id or
// status.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	filter := jobs.JobFilter{
		OwnerID:    owner,
		DocumentID: r.URL.Query().Get("document_id"),
		Status:     jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{jobId}. The job must belong to the
// requesting owner.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.OwnerID != owner {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}
