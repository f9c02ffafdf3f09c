package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/gcsuploader"
	"github.com/ddaros/financas/internal/review"
)

// RunStore is the bookkeeping surface the pipeline writes extraction runs
// and raw model outputs to. *bigquery.DocumentRepository satisfies it.
type RunStore interface {
	StartExtractionRun(ctx context.Context, documentID, modelName string) (string, error)
	MarkExtractionRunFailed(ctx context.Context, runID string, runErr error)
	MarkExtractionRunSucceeded(ctx context.Context, runID string) error
	InsertModelOutput(ctx context.Context, runID, documentID, modelName, rawJSON string) error
	SetDocumentStatus(ctx context.Context, documentID, status string) error
	SetDocumentHeader(ctx context.Context, documentID, bankName, cardNumber, cardHolder string) error
}

// Document statuses mirrored into the documents table as the pipeline
// progresses.
const (
	statusRunning = "RUNNING"
	statusParsed  = "PARSED"
	statusFailed  = "FAILED"
)

// PipelineStep is a single step of the extraction pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState is the shared state threaded through the steps.
type PipelineState struct {
	OwnerID    string
	DocumentID string
	GCSURI     string
	MimeType   string

	RunID        string
	DocBytes     []byte
	RawText      string
	Parsed       map[string]interface{}
	Transactions []*domain.Transaction
	Header       header
	Rejections   []Rejection

	Result *Result
}

// Pipeline executes steps in order, stopping at the first failure. Failures
// after a run was started mark the run and the document FAILED.
type Pipeline struct {
	steps []PipelineStep
	runs  RunStore
}

// NewStatementExtractionPipeline wires the standard extraction flow:
// start a run, fetch the document, call the model, store the raw output,
// validate the shape, classify candidates and finish the run.
func NewStatementExtractionPipeline(runs RunStore, storage gcsuploader.StorageService, model ModelCaller, lookups review.Store) *Pipeline {
	return &Pipeline{
		runs: runs,
		steps: []PipelineStep{
			&startRunStep{runs: runs, modelName: modelName(model)},
			&fetchDocumentStep{storage: storage},
			&callModelStep{model: model},
			&storeOutputStep{runs: runs, modelName: modelName(model)},
			&transformStep{},
			&classifyStep{lookups: lookups},
			&finishRunStep{runs: runs},
		},
	}
}

// Execute runs the pipeline for one document and returns the review-ready
// result.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) (*Result, error) {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			if state.RunID != "" {
				p.runs.MarkExtractionRunFailed(ctx, state.RunID, err)
				_ = p.runs.SetDocumentStatus(ctx, state.DocumentID, statusFailed)
			}
			return nil, fmt.Errorf("extraction step %d: %w", i+1, err)
		}
	}
	return state.Result, nil
}

func modelName(model ModelCaller) string {
	if g, ok := model.(*GeminiCaller); ok && g.ModelName != "" {
		return g.ModelName
	}
	return DefaultModelName
}

type startRunStep struct {
	runs      RunStore
	modelName string
}

func (s *startRunStep) Execute(ctx context.Context, state *PipelineState) error {
	runID, err := s.runs.StartExtractionRun(ctx, state.DocumentID, s.modelName)
	if err != nil {
		return err
	}
	state.RunID = runID
	return s.runs.SetDocumentStatus(ctx, state.DocumentID, statusRunning)
}

type fetchDocumentStep struct {
	storage gcsuploader.StorageService
}

func (s *fetchDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	data, err := s.storage.Fetch(ctx, state.GCSURI)
	if err != nil {
		return err
	}
	state.DocBytes = data
	return nil
}

type callModelStep struct {
	model ModelCaller
}

func (s *callModelStep) Execute(ctx context.Context, state *PipelineState) error {
	mime := state.MimeType
	if mime == "" {
		mime = "application/pdf"
	}
	raw, err := s.model.Call(ctx, state.DocBytes, mime)
	if err != nil {
		return err
	}
	state.RawText = raw

	parsed, err := parseModelResponse(raw)
	if err != nil {
		return err
	}
	state.Parsed = parsed
	return nil
}

type storeOutputStep struct {
	runs      RunStore
	modelName string
}

func (s *storeOutputStep) Execute(ctx context.Context, state *PipelineState) error {
	rawJSON, err := json.Marshal(state.Parsed)
	if err != nil {
		return fmt.Errorf("marshal model output: %w", err)
	}
	return s.runs.InsertModelOutput(ctx, state.RunID, state.DocumentID, s.modelName, string(rawJSON))
}

type transformStep struct{}

func (s *transformStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, h, rejected, err := transformModelOutput(state.Parsed, state.OwnerID, state.DocumentID, domain.SourceUpload)
	if err != nil {
		return err
	}
	state.Transactions = txs
	state.Header = h
	state.Rejections = rejected
	return nil
}

type classifyStep struct {
	lookups review.Store
}

func (s *classifyStep) Execute(ctx context.Context, state *PipelineState) error {
	candidates := make([]Candidate, 0, len(state.Transactions))
	for _, tx := range state.Transactions {
		match, err := review.Classify(ctx, s.lookups, tx.OwnerID, tx.Description, tx.Amount, tx.DateIncurred)
		if err != nil {
			return err
		}
		candidates = append(candidates, Candidate{
			Transaction: tx,
			Status:      match,
			Preselected: match.Preselected(),
		})
	}

	state.Result = &Result{
		DocumentID: state.DocumentID,
		RunID:      state.RunID,
		Candidates: candidates,
		Rejected:   state.Rejections,
		BankName:   state.Header.BankName,
		CardNumber: state.Header.CardNumber,
		CardHolder: state.Header.CardHolder,
	}
	return nil
}

type finishRunStep struct {
	runs RunStore
}

func (s *finishRunStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.runs.SetDocumentHeader(ctx, state.DocumentID, state.Header.BankName, state.Header.CardNumber, state.Header.CardHolder); err != nil {
		return err
	}
	if err := s.runs.SetDocumentStatus(ctx, state.DocumentID, statusParsed); err != nil {
		return err
	}
	return s.runs.MarkExtractionRunSucceeded(ctx, state.RunID)
}
