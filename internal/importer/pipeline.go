package importer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prospectflow/internal/model"
	"prospectflow/pkg/metrics"
)

const (
	defaultBatchSize = 50

	EventImportCompleted = "import.completed"
)

// EventPublisher emits outcome events, best-effort.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Preview is the parsed header plus a sample of rows, returned before
// an operator commits to a mapping.
type Preview struct {
	Headers   []string   `json:"headers"`
	RowCount  int        `json:"row_count"`
	Sample    [][]string `json:"sample"`
}

// DuplicateHit is one row whose email or identifier already matches a
// stored profile.
type DuplicateHit struct {
	Row     int      `json:"row"`
	Reasons []string `json:"reasons"`
}

// Pipeline runs one uploaded file end to end: parse, transform,
// validate, then create entities and their relations row by row.
// Per-row failures never fail the run.
type Pipeline struct {
	transformer *Transformer
	validator   *Validator
	creator     *EntityCreator
	relations   *RelationBuilder
	history     HistoryStore
	events      EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewPipeline(
	transformer *Transformer,
	validator *Validator,
	creator *EntityCreator,
	relations *RelationBuilder,
	history HistoryStore,
	events EventPublisher,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		transformer: transformer,
		validator:   validator,
		creator:     creator,
		relations:   relations,
		history:     history,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// PreviewFile parses the upload and returns headers plus up to
// sampleSize data rows, untransformed.
func (p *Pipeline) PreviewFile(filename string, data []byte, sampleSize int) (*Preview, error) {
	table, err := ParseFile(filename, data)
	if err != nil {
		return nil, err
	}
	if sampleSize <= 0 {
		sampleSize = 10
	}
	sample := table.Rows
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	return &Preview{
		Headers:  table.Headers,
		RowCount: len(table.Rows),
		Sample:   sample,
	}, nil
}

// CheckDuplicates transforms the rows and reports which ones collide
// with stored profiles, without creating anything.
func (p *Pipeline) CheckDuplicates(ctx context.Context, filename string, data []byte, config *MappingConfig) ([]DuplicateHit, error) {
	table, err := ParseFile(filename, data)
	if err != nil {
		return nil, err
	}

	rows := p.transformer.Transform(ctx, table, config)
	p.validator.Validate(ctx, rows, config)

	hits := []DuplicateHit{}
	for _, row := range rows {
		if len(row.Duplicates) > 0 {
			hits = append(hits, DuplicateHit{Row: row.Index, Reasons: row.Duplicates})
		}
	}
	return hits, nil
}

// Execute runs the full import and records it in the history store.
func (p *Pipeline) Execute(ctx context.Context, filename string, data []byte, config *MappingConfig, opts Options, createdBy string) (*Result, error) {
	record := &model.ImportHistory{
		ID:         uuid.New().String(),
		EntityType: config.EntityType,
		FileName:   filename,
		FileSize:   int64(len(data)),
		Status:     model.ImportProcessing,
		CreatedBy:  createdBy,
		StartedAt:  p.now(),
	}
	if raw, err := json.Marshal(config); err == nil {
		record.MappingConfig = raw
	}
	if err := p.history.Insert(ctx, record); err != nil {
		p.logger.Error("failed to record import start", zap.Error(err))
	}

	table, err := ParseFile(filename, data)
	if err != nil {
		p.finishHistory(ctx, record, nil, model.ImportFailed)
		return nil, err
	}

	rows := p.transformer.Transform(ctx, table, config)
	p.validator.Validate(ctx, rows, config)

	result := p.processRows(ctx, rows, config, opts)
	result.ImportID = record.ID

	status := model.ImportCompleted
	if result.Success == 0 && result.Error > 0 {
		status = model.ImportFailed
	}
	p.finishHistory(ctx, record, result, status)
	p.publishCompleted(record.ID, config, result)

	p.logger.Info("import finished",
		zap.String("import_id", record.ID),
		zap.String("entity_type", string(config.EntityType)),
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("error", result.Error),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (p *Pipeline) processRows(ctx context.Context, rows []Row, config *MappingConfig, opts Options) *Result {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	result := &Result{Total: len(rows), Rows: make([]RowResult, 0, len(rows))}
	halted := false

	for i := range rows {
		row := &rows[i]
		if i > 0 && i%batchSize == 0 {
			p.logger.Info("import batch boundary",
				zap.Int("processed", i), zap.Int("total", len(rows)))
		}

		if halted {
			result.add(RowResult{
				Row:      row.Index,
				Status:   RowSkipped,
				Warnings: []string{"not processed, run halted by an earlier error"},
			})
			continue
		}

		rowResult := p.processRow(ctx, row, config, opts)
		result.add(rowResult)

		if rowResult.Status == RowError && !opts.ContinueOnError {
			halted = true
		}
	}
	return result
}

func (p *Pipeline) processRow(ctx context.Context, row *Row, config *MappingConfig, opts Options) RowResult {
	if len(row.Duplicates) > 0 {
		if opts.SkipDuplicates {
			return RowResult{Row: row.Index, Status: RowSkipped, Warnings: row.Duplicates}
		}
		row.Errors = append(row.Errors, row.Duplicates...)
	}
	if len(row.Errors) > 0 {
		return RowResult{Row: row.Index, Status: RowError, Errors: row.Errors}
	}

	profile, creds, err := p.creator.Create(ctx, row, config.EntityType, opts.GeneratePasswords)
	if err != nil {
		return RowResult{Row: row.Index, Status: RowError, Errors: []string{err.Error()}}
	}

	rowResult := RowResult{
		Row:         row.Index,
		Status:      RowSuccess,
		EntityID:    profile.ID,
		Credentials: creds,
	}
	if config.EntityType == model.EntityClient {
		rowResult.Warnings = p.relations.Build(ctx, row, profile.ID)
	}
	return rowResult
}

func (r *Result) add(rowResult RowResult) {
	r.Rows = append(r.Rows, rowResult)
	switch rowResult.Status {
	case RowSuccess:
		r.Success++
	case RowSkipped:
		r.Skipped++
	default:
		r.Error++
	}
	metrics.ImportRows.WithLabelValues(string(rowResult.Status)).Inc()
}

func (p *Pipeline) finishHistory(ctx context.Context, record *model.ImportHistory, result *Result, status model.ImportStatus) {
	now := p.now()
	record.Status = status
	record.CompletedAt = &now
	if result != nil {
		record.TotalRows = result.Total
		record.SuccessCount = result.Success
		record.ErrorCount = result.Error
		record.SkippedCount = result.Skipped
		if raw, err := json.Marshal(sanitizedRows(result.Rows)); err == nil {
			record.Results = raw
		}
	}
	if err := p.history.Update(ctx, record); err != nil {
		p.logger.Error("failed to record import completion",
			zap.String("import_id", record.ID), zap.Error(err))
	}
}

// sanitizedRows strips generated passwords before the results land in
// the history table.
func sanitizedRows(rows []RowResult) []RowResult {
	out := make([]RowResult, len(rows))
	for i, row := range rows {
		out[i] = row
		out[i].Credentials = nil
	}
	return out
}

func (p *Pipeline) publishCompleted(importID string, config *MappingConfig, result *Result) {
	if p.events == nil {
		return
	}
	err := p.events.Publish(EventImportCompleted, map[string]any{
		"import_id":   importID,
		"entity_type": string(config.EntityType),
		"total":       result.Total,
		"success":     result.Success,
		"error":       result.Error,
		"skipped":     result.Skipped,
	})
	if err != nil {
		p.logger.Warn("failed to publish import event", zap.Error(err))
	}
}
