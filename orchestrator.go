package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileReport is the outcome of one run over a statement file.
type FileReport struct {
	File        ProcessedFile
	RunID       string
	Counters    FileProcessingCounters
	Status      RunStatus
	Interrupted bool
	Duration    time.Duration
}

// Ingestor processes statement files of one processor row by row.
type Ingestor struct {
	Profile         ProcessorProfile
	Institution     string
	InstitutionType string
	Store           LedgerStore
	Source          RowSource
	Validator       TransactionValidator
	Normalizer      Normalizer
	Classifier      *Classifier
	Answerer        Answerer
	// ReprocessSkipped sends transactions skipped in earlier runs to classification again.
	ReprocessSkipped bool
}

type rowOutcome int

const (
	outcomeProcessed rowOutcome = iota
	outcomeSkipped
	outcomeDuplicate
	outcomeAutoSkipped
	outcomeInterrupted
	// Row was recorded as skipped because classification was interrupted, stop after it.
	outcomeSkippedInterrupted
)

// IngestFile extracts rows of the file and processes them in source order. Returned error
// means the file failed: it couldn't be read, has no header or storage failed. Rows stored
// before a failure stay stored.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (FileReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := loggerFrom(ctx).With().
		Str("run_id", runID).
		Str("file", filepath.Base(path)).
		Str("processor", string(i.Profile.Kind)).
		Logger()
	ctx = withLogger(ctx, logger)

	info, err := os.Stat(path)
	if err != nil {
		return FileReport{RunID: runID, Status: RunError}, fmt.Errorf("can't access '%s': %w", path, err)
	}
	institution, err := i.Store.GetOrCreateInstitution(ctx, i.Institution, i.InstitutionType)
	if err != nil {
		return FileReport{RunID: runID, Status: RunError}, err
	}
	file, err := i.Store.CreateProcessedFile(ctx, ProcessedFile{
		InstitutionID: institution.ID,
		Path:          path,
		Name:          filepath.Base(path),
		Size:          info.Size(),
		Processor:     i.Profile.Kind,
	})
	if err != nil {
		return FileReport{RunID: runID, Status: RunError}, err
	}
	report := FileReport{File: file, RunID: runID}

	rows, err := i.Source.Extract(path)
	if err != nil {
		logger.Error().Err(err).Msg("Can't extract rows")
		report.Status = RunError
		return report, i.finish(ctx, &report, FileFailed, start, err)
	}
	logger.Info().Int("rows", len(rows)).Msg("Extracted rows")

	report.Counters, report.Interrupted, err = i.processRows(ctx, file, rows)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("Processing failed")
		report.Status = RunError
		return report, i.finish(ctx, &report, FileFailed, start, err)
	case report.Interrupted:
		logger.Warn().Int("handled", report.Counters.Handled()).Msg("Processing interrupted")
		report.Status = RunPartiallyCompleted
		return report, i.finish(ctx, &report, FilePartiallyProcessed, start, nil)
	case report.Counters.Handled() == report.Counters.Total:
		report.Status = RunCompleted
		return report, i.finish(ctx, &report, FileCompleted, start, nil)
	default:
		report.Status = RunPartiallyCompleted
		return report, i.finish(ctx, &report, FilePartiallyProcessed, start, nil)
	}
}

// finish stores file status and processing log even when ctx is already cancelled.
// Returns cause joined with bookkeeping errors.
func (i *Ingestor) finish(
	ctx context.Context,
	report *FileReport,
	status FileStatus,
	start time.Time,
	cause error,
) error {
	ctx = context.WithoutCancel(ctx)
	report.Duration = time.Since(start)
	report.File.Status = status
	errs := []error{cause}
	if err := i.Store.SetProcessedFileStatus(ctx, report.File.ID, status); err != nil {
		errs = append(errs, err)
	}
	err := i.Store.CreateProcessingLog(ctx, ProcessingLog{
		FileID:   report.File.ID,
		RunID:    report.RunID,
		Counters: report.Counters,
		Duration: report.Duration,
	})
	if err != nil {
		errs = append(errs, err)
	}
	loggerFrom(ctx).Info().
		Str("status", string(status)).
		Int("total", report.Counters.Total).
		Int("processed", report.Counters.Processed).
		Int("skipped", report.Counters.Skipped).
		Int("duplicate", report.Counters.Duplicate).
		Int("auto_skipped", report.Counters.AutoSkipped).
		Dur("duration", report.Duration).
		Msg("Finished file")
	return errors.Join(errs...)
}

// processRows runs rows through validation, normalization, deduplication and
// classification. Stops early on interruption and on storage errors.
func (i *Ingestor) processRows(
	ctx context.Context,
	file ProcessedFile,
	rows []Row,
) (FileProcessingCounters, bool, error) {
	counters := FileProcessingCounters{Total: len(rows)}
	for _, row := range rows {
		if ctx.Err() != nil {
			return counters, true, nil
		}
		outcome, err := i.processRow(ctx, file, row)
		if err != nil {
			if ctx.Err() != nil {
				return counters, true, nil
			}
			return counters, false, fmt.Errorf("row %d: %w", row.Number, err)
		}
		switch outcome {
		case outcomeProcessed:
			counters.Processed++
		case outcomeSkipped:
			counters.Skipped++
		case outcomeDuplicate:
			counters.Duplicate++
		case outcomeAutoSkipped:
			counters.AutoSkipped++
		case outcomeInterrupted:
			return counters, true, nil
		case outcomeSkippedInterrupted:
			counters.Skipped++
			return counters, true, nil
		}
	}
	return counters, false, nil
}

// processRow handles one row. Returned error is a storage failure, all other row problems
// end up as skipped records.
func (i *Ingestor) processRow(ctx context.Context, file ProcessedFile, row Row) (rowOutcome, error) {
	logger := loggerFrom(ctx).With().Int("row", row.Number).Logger()

	if reason := i.Validator.Validate(row); reason != "" {
		logger.Debug().Str("reason", reason).Msg("Invalid row")
		return i.skip(ctx, file, rawRowKey(row), row, reason)
	}
	tx, err := i.Normalizer.Normalize(ctx, row)
	if errors.Is(err, errInterrupted) {
		return outcomeInterrupted, nil
	}
	if err != nil {
		logger.Debug().Err(err).Msg("Can't normalize row")
		return i.skip(ctx, file, rawRowKey(row), row, err.Error())
	}

	key := transactionKey(tx)
	exists, err := i.Store.TransactionExists(ctx, key)
	if err != nil {
		return 0, err
	}
	if exists {
		logger.Debug().Str("key", string(key)).Msg("Duplicate transaction")
		return outcomeDuplicate, nil
	}
	skippedBefore, err := i.Store.SkippedTransactionExists(ctx, key)
	if err != nil {
		return 0, err
	}
	if skippedBefore && !i.ReprocessSkipped {
		logger.Debug().Str("key", string(key)).Msg("Skipped in earlier run")
		return outcomeAutoSkipped, nil
	}

	i.Answerer.Inform(fmt.Sprintf(
		"Row %d: %s '%s' %s %s%s",
		row.Number, tx.Date.Format(OutputDateFormat), tx.Description, tx.Type,
		currencySymbol(tx.Currency), formatAmount(tx.Amount()),
	))
	decision, err := runClassification(ctx, i.Classifier, tx, i.Answerer)
	if err != nil {
		return 0, err
	}
	if decision.Interrupted {
		if _, err := i.skip(context.WithoutCancel(ctx), file, key, row, decision.Reason); err != nil {
			return 0, err
		}
		logger.Debug().Msg("Classification interrupted")
		return outcomeSkippedInterrupted, nil
	}
	if decision.Action == ActionSkip {
		return i.skip(ctx, file, key, row, decision.Reason)
	}

	_, err = i.Store.CreateTransaction(ctx, TransactionRecord{
		NormalizedTransaction: tx,
		Key:                   key,
		InstitutionID:         file.InstitutionID,
		FileID:                file.ID,
		PatternID:             decision.PatternID,
		Category:              decision.Category,
		TransactionCategory:   decision.TransactionCategory,
		Reason:                decision.Reason,
	}, decision.Splits)
	if err != nil {
		return 0, err
	}
	logger.Debug().
		Str("category", decision.TransactionCategory).
		Int("splits", len(decision.Splits)).
		Msg("Stored transaction")
	return outcomeProcessed, nil
}

func (i *Ingestor) skip(
	ctx context.Context,
	file ProcessedFile,
	key DedupKey,
	row Row,
	reason string,
) (rowOutcome, error) {
	err := i.Store.CreateSkippedTransaction(ctx, SkippedTransaction{
		Key:           key,
		InstitutionID: file.InstitutionID,
		FileID:        file.ID,
		Row:           row,
		Reason:        reason,
	})
	if err != nil {
		return 0, err
	}
	return outcomeSkipped, nil
}
