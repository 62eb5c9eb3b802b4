package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/internal/infrastructure/taskqueue"
	"roster-service/pkg/logger"
	"roster-service/pkg/metrics"
	"roster-service/pkg/tabular"
	"roster-service/pkg/utils"
)

// SourceFetcher downloads the payload published at a source URL
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// OrchestratorConfig holds the ingestion limits
type OrchestratorConfig struct {
	UploadDir        string
	MaxUploadBytes   int64
	RawSnapshotBytes int
	Retry            taskqueue.RetryPolicy
}

// UploadRequest is a manually uploaded roster file
type UploadRequest struct {
	Title         string
	DepartmentID  *uint
	FileName      string
	FileBytes     []byte
	StartDate     *time.Time
	EndDate       *time.Time
	ColumnMapping tabular.Mapping
	Published     bool
}

// ingestJob is what one attempt needs besides the payload
type ingestJob struct {
	format  tabular.Format
	mapping tabular.Mapping
	list    entity.ShiftList
	action  string
	actor   entity.Actor
}

// FetchOrchestrator runs fetches and uploads through extract, map and build as queued tasks
type FetchOrchestrator struct {
	store     repository.Store
	queue     taskqueue.Queue
	fetcher   SourceFetcher
	extractor *tabular.Extractor
	builder   *ShiftBuilder
	auditor   *Auditor
	metrics   *metrics.Metrics
	logger    logger.Logger
	cfg       OrchestratorConfig
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[uint]*flight
}

// flight tracks one queued fetch of a source; ready is closed once Submit has returned
type flight struct {
	ready  chan struct{}
	handle taskqueue.Handle
	err    error
}

// NewFetchOrchestrator creates a new fetch orchestrator
func NewFetchOrchestrator(
	store repository.Store,
	queue taskqueue.Queue,
	fetcher SourceFetcher,
	builder *ShiftBuilder,
	auditor *Auditor,
	metrics *metrics.Metrics,
	logger logger.Logger,
	cfg OrchestratorConfig,
) *FetchOrchestrator {
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &FetchOrchestrator{
		store:     store,
		queue:     queue,
		fetcher:   fetcher,
		extractor: tabular.NewExtractor(),
		builder:   builder,
		auditor:   auditor,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		inFlight:  make(map[uint]*flight),
	}
}

// TriggerFetch queues a fetch of one source. A source already being fetched returns the running task.
func (o *FetchOrchestrator) TriggerFetch(ctx context.Context, sourceID uint, actor entity.Actor) (taskqueue.Handle, error) {
	source, err := o.store.DataSources().GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return taskqueue.Handle{}, errs.NewValidationError("source", errs.CodeNotFound, "data source %d not found", sourceID)
		}
		return taskqueue.Handle{}, fmt.Errorf("failed to load data source: %w", err)
	}
	if !source.Active {
		return taskqueue.Handle{}, errs.NewValidationError("source", errs.CodeInvalid, "data source %q is inactive", source.Name)
	}
	return o.submitSource(ctx, source, actor)
}

// DispatchDue queues every active source whose fetch interval has elapsed and that is not already running
func (o *FetchOrchestrator) DispatchDue(ctx context.Context) ([]taskqueue.Handle, error) {
	sources, err := o.store.DataSources().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active data sources: %w", err)
	}

	now := o.now()
	var handles []taskqueue.Handle
	for _, source := range sources {
		if !source.IsDueForFetch(now) || o.isInFlight(source.ID) {
			continue
		}
		h, err := o.submitSource(ctx, source, entity.SystemActor)
		if err != nil {
			o.logger.Error("Failed to dispatch data source", "sourceID", source.ID, "error", err)
			continue
		}
		handles = append(handles, h)
	}

	if len(handles) > 0 {
		o.logger.Info("Dispatched due data sources", "count", len(handles))
	}
	return handles, nil
}

// ProcessUpload validates an uploaded file, parks it in the upload directory and queues its import
func (o *FetchOrchestrator) ProcessUpload(ctx context.Context, req UploadRequest, actor entity.Actor) (taskqueue.Handle, error) {
	format, mapping, err := o.validateUpload(req)
	if err != nil {
		return taskqueue.Handle{}, err
	}

	file, err := os.CreateTemp(o.cfg.UploadDir, "roster-upload-*"+strings.ToLower(filepath.Ext(req.FileName)))
	if err != nil {
		return taskqueue.Handle{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	path := file.Name()
	_, werr := file.Write(req.FileBytes)
	cerr := file.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return taskqueue.Handle{}, fmt.Errorf("failed to store upload: %w", errors.Join(werr, cerr))
	}

	list := entity.ShiftList{
		Title:        strings.TrimSpace(req.Title),
		DepartmentID: req.DepartmentID,
		SourceType:   entity.SourceTypeUpload,
		SourceFile:   req.FileName,
		IsPublished:  req.Published,
		CreatedBy:    actor.UserID,
	}
	if req.StartDate != nil {
		list.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		list.EndDate = *req.EndDate
	}
	job := ingestJob{format: format, mapping: mapping, list: list, action: entity.AuditImport, actor: actor}

	h, err := o.queue.Submit(ctx, taskqueue.Task{
		Name:   "upload:" + req.FileName,
		Policy: &o.cfg.Retry,
		Run: func(ctx context.Context, a taskqueue.Attempt) error {
			fetchLog := &entity.FetchLog{UploadName: req.FileName}
			return o.runAttempt(ctx, a, fetchLog, job, func(ctx context.Context) ([]byte, error) {
				return os.ReadFile(path)
			})
		},
		OnDone: func(res taskqueue.Result) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				o.logger.Warn("Failed to remove upload file", "path", path, "error", err)
			}
		},
	})
	if err != nil {
		os.Remove(path)
		return taskqueue.Handle{}, fmt.Errorf("failed to queue upload: %w", err)
	}

	o.logger.Info("Upload queued", "taskID", h.ID, "file", req.FileName, "bytes", len(req.FileBytes))
	return h, nil
}

// Await waits for a queued fetch or upload to finish
func (o *FetchOrchestrator) Await(ctx context.Context, handleID string) (taskqueue.Result, error) {
	return o.queue.Await(ctx, handleID)
}

func (o *FetchOrchestrator) validateUpload(req UploadRequest) (tabular.Format, tabular.Mapping, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", nil, errs.NewValidationError("title", errs.CodeRequired, "title is required")
	}
	format, err := tabular.FormatFromFileName(req.FileName)
	if err != nil {
		return "", nil, err
	}
	if len(req.FileBytes) == 0 {
		return "", nil, errs.NewValidationError("file", errs.CodeRequired, "uploaded file is empty")
	}
	if int64(len(req.FileBytes)) > o.cfg.MaxUploadBytes {
		return "", nil, errs.NewValidationError("file", errs.CodeTooLarge, "file is %d bytes, the limit is %d", len(req.FileBytes), o.cfg.MaxUploadBytes)
	}
	if !tabular.Sniff(req.FileBytes, format) {
		return "", nil, errs.NewValidationError("file", errs.CodeUnsupportedFile, "content of %q does not look like %s", req.FileName, format)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "", nil, errs.NewValidationError("end_date", errs.CodeInvalid, "end date is before start date")
	}

	mapping := req.ColumnMapping
	if mapping == nil {
		mapping = tabular.DefaultMapping()
	}
	if err := mapping.Validate(); err != nil {
		return "", nil, err
	}
	return format, mapping, nil
}

func (o *FetchOrchestrator) submitSource(ctx context.Context, source *entity.DataSource, actor entity.Actor) (taskqueue.Handle, error) {
	sourceID := source.ID

	// Reserve the source under the lock; Submit may block on a full queue and must run without it
	o.mu.Lock()
	if f, ok := o.inFlight[sourceID]; ok {
		o.mu.Unlock()
		select {
		case <-f.ready:
		case <-ctx.Done():
			return taskqueue.Handle{}, ctx.Err()
		}
		return f.handle, f.err
	}
	f := &flight{ready: make(chan struct{})}
	o.inFlight[sourceID] = f
	o.mu.Unlock()

	h, err := o.queue.Submit(ctx, taskqueue.Task{
		Name:   "fetch:source:" + strconv.FormatUint(uint64(sourceID), 10),
		Policy: &o.cfg.Retry,
		Run: func(ctx context.Context, a taskqueue.Attempt) error {
			return o.runSource(ctx, a, sourceID, actor)
		},
		OnDone: func(res taskqueue.Result) {
			o.release(sourceID, f)
			if !res.Succeeded() {
				o.logger.Warn("Data source fetch failed", "sourceID", sourceID, "attempts", res.Attempts, "error", res.Err)
			}
		},
	})
	if err != nil {
		h, err = taskqueue.Handle{}, fmt.Errorf("failed to queue fetch: %w", err)
		o.release(sourceID, f)
	}
	f.handle, f.err = h, err
	close(f.ready)
	return h, err
}

// release drops the reservation of sourceID if it still belongs to f
func (o *FetchOrchestrator) release(sourceID uint, f *flight) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[sourceID] == f {
		delete(o.inFlight, sourceID)
	}
}

func (o *FetchOrchestrator) isInFlight(sourceID uint) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[sourceID]
	return ok
}

// runSource is one fetch attempt of a data source. The source is reloaded so edits between
// attempts take effect.
func (o *FetchOrchestrator) runSource(ctx context.Context, a taskqueue.Attempt, sourceID uint, actor entity.Actor) error {
	fetchLog := &entity.FetchLog{SourceID: &sourceID}

	source, err := o.store.DataSources().GetByID(ctx, sourceID)
	if err != nil {
		return o.failEarly(ctx, a, fetchLog, fmt.Errorf("failed to load data source: %w", err))
	}

	now := o.now()
	job := ingestJob{
		format:  source.Format,
		mapping: source.ColumnMapping,
		action:  entity.AuditFetch,
		actor:   actor,
		list: entity.ShiftList{
			Title:        fmt.Sprintf("%s - %s", source.Name, now.Format("02.01.2006")),
			DepartmentID: source.DepartmentID,
			SourceType:   entity.SourceTypeURL,
			SourceURL:    source.URL,
			SourceID:     &sourceID,
			CreatedBy:    actor.UserID,
			StartDate:    truncateDay(now),
			EndDate:      truncateDay(now),
		},
	}

	return o.runAttempt(ctx, a, fetchLog, job, func(ctx context.Context) ([]byte, error) {
		if err := utils.ValidateSourceURL(source.URL); err != nil {
			return nil, err
		}
		return o.fetcher.Fetch(ctx, source.URL)
	})
}

// failEarly records an attempt that failed before it could start
func (o *FetchOrchestrator) failEarly(ctx context.Context, a taskqueue.Attempt, fetchLog *entity.FetchLog, cause error) error {
	return o.runAttempt(ctx, a, fetchLog, ingestJob{}, func(context.Context) ([]byte, error) {
		return nil, cause
	})
}

// runAttempt opens the attempt's fetch log, loads the payload and ingests it in one transaction.
// The fetch log is finalized outside the transaction when the attempt fails.
func (o *FetchOrchestrator) runAttempt(ctx context.Context, a taskqueue.Attempt, fetchLog *entity.FetchLog, job ingestJob, load func(context.Context) ([]byte, error)) error {
	started := o.now()
	fetchLog.TaskID = a.TaskID
	fetchLog.Attempt = a.Number
	fetchLog.Status = entity.FetchStatusRunning
	fetchLog.StartedAt = started

	if err := o.store.FetchLogs().Create(ctx, fetchLog); err != nil {
		return fmt.Errorf("failed to open fetch log: %w", err)
	}

	log := o.logger.With("taskID", a.TaskID, "attempt", a.Number, "fetchLogID", fetchLog.ID)

	list, result, err := o.ingest(ctx, fetchLog, job, load)
	if err != nil {
		o.finishFailed(ctx, fetchLog, result, err)
		o.metrics.IncError("ingest")
		o.observe(fetchLog)
		log.Error("Ingestion attempt failed", "error", err, "transient", errs.IsTransient(err))
		return err
	}

	o.observe(fetchLog)
	log.Info("Ingestion attempt finished",
		"status", fetchLog.Status,
		"shiftListID", list.ID,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
		"skipped", result.Skipped)

	o.auditor.Record(ctx, job.action, modelShiftList, list.ID, list.String(), map[string]interface{}{
		"fetchLogId": fetchLog.ID,
		"created":    result.Created,
		"updated":    result.Updated,
		"failed":     result.Failed,
		"skipped":    result.Skipped,
	}, job.actor)
	return nil
}

func (o *FetchOrchestrator) ingest(ctx context.Context, fetchLog *entity.FetchLog, job ingestJob, load func(context.Context) ([]byte, error)) (*entity.ShiftList, *BuildResult, error) {
	payload, err := load(ctx)
	if err != nil {
		return nil, nil, err
	}
	fetchLog.RawData = rawSnapshot(payload, job.format, o.cfg.RawSnapshotBytes)

	table, err := o.extractor.Extract(payload, job.format)
	if err != nil {
		return nil, nil, err
	}
	mapped := tabular.Map(table, job.mapping)
	if missing := tabular.MissingRequired(mapped); len(missing) > 0 {
		return nil, nil, &errs.MissingColumnError{Columns: missing}
	}

	list := job.list
	logID := fetchLog.ID
	list.FetchLogID = &logID

	var result *BuildResult
	err = o.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.ShiftLists().Create(ctx, &list); err != nil {
			return fmt.Errorf("failed to create shift list: %w", err)
		}

		var err error
		result, err = o.builder.Build(ctx, tx, mapped, &list)
		if err != nil {
			return err
		}
		if result.Imported() == 0 {
			return &errs.ExtractionError{
				Kind:   errs.EmptyTable,
				Format: string(job.format),
				Err:    fmt.Errorf("no importable rows out of %d", result.Processed),
			}
		}

		completed := o.now()
		applyResult(fetchLog, result)
		fetchLog.Status = result.Status()
		fetchLog.ErrorMessage = result.Summary(20)
		fetchLog.CompletedAt = &completed
		if err := tx.FetchLogs().Update(ctx, fetchLog); err != nil {
			return fmt.Errorf("failed to finalize fetch log: %w", err)
		}

		if list.SourceID != nil {
			if err := tx.DataSources().MarkFetched(ctx, *list.SourceID, completed); err != nil {
				return fmt.Errorf("failed to mark data source fetched: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, result, err
	}
	return &list, result, nil
}

func (o *FetchOrchestrator) finishFailed(ctx context.Context, fetchLog *entity.FetchLog, result *BuildResult, cause error) {
	completed := o.now()
	if result != nil {
		applyResult(fetchLog, result)
		fetchLog.RecordsCreated, fetchLog.RecordsUpdated = 0, 0
	}
	fetchLog.Status = entity.FetchStatusFailed
	fetchLog.ErrorMessage = cause.Error()
	if result != nil && len(result.Errors) > 0 {
		fetchLog.ErrorMessage += "\n" + result.Summary(20)
	}
	fetchLog.CompletedAt = &completed

	// the request context may be the reason the attempt failed
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := o.store.FetchLogs().Update(writeCtx, fetchLog); err != nil {
		o.logger.Error("Failed to finalize fetch log", "fetchLogID", fetchLog.ID, "error", err)
	}
}

func (o *FetchOrchestrator) observe(fetchLog *entity.FetchLog) {
	o.metrics.ObserveRun(fetchLog.Status, fetchLog.Duration().Seconds(),
		fetchLog.RecordsCreated, fetchLog.RecordsUpdated, fetchLog.RecordsFailed, fetchLog.RecordsSkipped)
}

func applyResult(fetchLog *entity.FetchLog, result *BuildResult) {
	fetchLog.RecordsProcessed = result.Processed
	fetchLog.RecordsCreated = result.Created
	fetchLog.RecordsUpdated = result.Updated
	fetchLog.RecordsFailed = result.Failed
	fetchLog.RecordsSkipped = result.Skipped
}

// rawSnapshot keeps the head of text payloads for diagnosis; binary payloads are only described
func rawSnapshot(payload []byte, format tabular.Format, limit int) string {
	if limit <= 0 {
		return ""
	}
	switch format {
	case tabular.Delimited, tabular.HTMLTable:
	default:
		return fmt.Sprintf("<%d bytes of %s>", len(payload), format)
	}
	head, suffix := payload, ""
	if len(head) > limit {
		head = head[:limit]
		suffix = fmt.Sprintf("\n... truncated, %d bytes total", len(payload))
	}
	// a rune cut in half at the limit is dropped
	return strings.ToValidUTF8(string(head), "") + suffix
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
