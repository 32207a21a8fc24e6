package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS institutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		institution_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processed_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		institution_id INTEGER NOT NULL REFERENCES institutions(id),
		file_path TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		processor_type TEXT NOT NULL,
		processing_status TEXT NOT NULL DEFAULT 'processing',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS category_patterns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		patterns TEXT NOT NULL,
		category TEXT NOT NULL,
		processor_type TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (name, processor_type)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_hash TEXT NOT NULL UNIQUE,
		institution_id INTEGER NOT NULL REFERENCES institutions(id),
		processed_file_id INTEGER NOT NULL REFERENCES processed_files(id),
		transaction_date TEXT NOT NULL,
		description TEXT NOT NULL,
		debit_amount REAL,
		credit_amount REAL,
		balance REAL,
		reference_number TEXT,
		transaction_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		pattern_id INTEGER REFERENCES category_patterns(id),
		category TEXT,
		transaction_category TEXT,
		reason TEXT,
		has_splits INTEGER NOT NULL DEFAULT 0,
		is_settled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_splits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id),
		person_name TEXT NOT NULL,
		percentage REAL NOT NULL,
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		is_settled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS skipped_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_hash TEXT NOT NULL UNIQUE,
		institution_id INTEGER NOT NULL REFERENCES institutions(id),
		processed_file_id INTEGER NOT NULL REFERENCES processed_files(id),
		raw_data TEXT NOT NULL,
		row_number INTEGER NOT NULL,
		skip_reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processing_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		processed_file_id INTEGER NOT NULL REFERENCES processed_files(id),
		run_id TEXT NOT NULL,
		total_rows INTEGER NOT NULL,
		processed_rows INTEGER NOT NULL,
		skipped_rows INTEGER NOT NULL,
		duplicate_rows INTEGER NOT NULL,
		auto_skipped_rows INTEGER NOT NULL,
		processing_seconds REAL NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

// LedgerStore is persistence used while processing a statement file.
// Every call is a short unit of work on its own.
type LedgerStore interface {
	GetOrCreateInstitution(ctx context.Context, name, institutionType string) (Institution, error)
	CreateProcessedFile(ctx context.Context, file ProcessedFile) (ProcessedFile, error)
	SetProcessedFileStatus(ctx context.Context, id int64, status FileStatus) error
	TransactionExists(ctx context.Context, key DedupKey) (bool, error)
	SkippedTransactionExists(ctx context.Context, key DedupKey) (bool, error)
	// CreateTransaction stores transaction with its splits atomically.
	CreateTransaction(ctx context.Context, record TransactionRecord, splits []Split) (int64, error)
	// CreateSkippedTransaction ignores records with already stored key.
	CreateSkippedTransaction(ctx context.Context, skipped SkippedTransaction) error
	CreateProcessingLog(ctx context.Context, entry ProcessingLog) error
}

// SQLiteStore implements LedgerStore and PatternStore on a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// openStore opens (or creates) the SQLite database and ensures the schema exists.
func openStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer, a single connection also keeps pragmas in effect.
	db.SetMaxOpenConns(1)
	for _, statement := range schemaStatements {
		if _, err := db.Exec(statement); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreateInstitution(ctx context.Context, name, institutionType string) (Institution, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO institutions (name, institution_type, created_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING`,
		name, institutionType, timestamp(),
	)
	if err != nil {
		return Institution{}, fmt.Errorf("insert institution '%s': %w", name, err)
	}
	institution := Institution{Name: name}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, institution_type FROM institutions WHERE name = ?`, name,
	).Scan(&institution.ID, &institution.Type)
	if err != nil {
		return Institution{}, fmt.Errorf("select institution '%s': %w", name, err)
	}
	return institution, nil
}

func (s *SQLiteStore) CreateProcessedFile(ctx context.Context, file ProcessedFile) (ProcessedFile, error) {
	if file.Status == "" {
		file.Status = FileProcessing
	}
	now := timestamp()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_files (
			institution_id, file_path, file_name, file_size, processor_type, processing_status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		file.InstitutionID, file.Path, file.Name, file.Size, string(file.Processor), string(file.Status),
		now, now,
	)
	if err != nil {
		return ProcessedFile{}, fmt.Errorf("insert processed file '%s': %w", file.Path, err)
	}
	if file.ID, err = result.LastInsertId(); err != nil {
		return ProcessedFile{}, fmt.Errorf("processed file id: %w", err)
	}
	return file, nil
}

func (s *SQLiteStore) SetProcessedFileStatus(ctx context.Context, id int64, status FileStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE processed_files SET processing_status = ?, updated_at = ? WHERE id = ?`,
		string(status), timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update processed file %d status: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("processed file %d not found", id)
	}
	return nil
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) TransactionExists(ctx context.Context, key DedupKey) (bool, error) {
	found, err := s.exists(ctx, `SELECT 1 FROM transactions WHERE transaction_hash = ?`, string(key))
	if err != nil {
		return false, fmt.Errorf("check transaction %s: %w", key, err)
	}
	return found, nil
}

func (s *SQLiteStore) SkippedTransactionExists(ctx context.Context, key DedupKey) (bool, error) {
	found, err := s.exists(ctx, `SELECT 1 FROM skipped_transactions WHERE transaction_hash = ?`, string(key))
	if err != nil {
		return false, fmt.Errorf("check skipped transaction %s: %w", key, err)
	}
	return found, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func (s *SQLiteStore) CreateTransaction(ctx context.Context, record TransactionRecord, splits []Split) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := timestamp()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (
			transaction_hash, institution_id, processed_file_id, transaction_date, description,
			debit_amount, credit_amount, balance, reference_number, transaction_type, currency,
			pattern_id, category, transaction_category, reason, has_splits, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(record.Key), record.InstitutionID, record.FileID, record.Date.Format(OutputDateFormat),
		record.Description, nullableFloat(record.Debit), nullableFloat(record.Credit), nullableFloat(record.Balance), record.Reference,
		string(record.Type), record.Currency, nullableID(record.PatternID), record.Category,
		record.TransactionCategory, record.Reason, len(splits) > 0, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction %s: %w", record.Key, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	for _, split := range splits {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_splits (transaction_id, person_name, percentage, amount, currency, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, split.Person, split.Percentage, split.Amount, record.Currency, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert split for '%s': %w", split.Person, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction %s: %w", record.Key, err)
	}
	return id, nil
}

func (s *SQLiteStore) CreateSkippedTransaction(ctx context.Context, skipped SkippedTransaction) error {
	rawData, err := json.Marshal(skipped.Row)
	if err != nil {
		return fmt.Errorf("marshal row %d: %w", skipped.Row.Number, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO skipped_transactions (
			transaction_hash, institution_id, processed_file_id, raw_data, row_number, skip_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_hash) DO NOTHING`,
		string(skipped.Key), skipped.InstitutionID, skipped.FileID, string(rawData),
		skipped.Row.Number, skipped.Reason, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert skipped transaction %s: %w", skipped.Key, err)
	}
	return nil
}

func (s *SQLiteStore) CreateProcessingLog(ctx context.Context, entry ProcessingLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_logs (
			processed_file_id, run_id, total_rows, processed_rows, skipped_rows, duplicate_rows,
			auto_skipped_rows, processing_seconds, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.FileID, entry.RunID, entry.Counters.Total, entry.Counters.Processed,
		entry.Counters.Skipped, entry.Counters.Duplicate, entry.Counters.AutoSkipped,
		entry.Duration.Seconds(), timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert processing log for file %d: %w", entry.FileID, err)
	}
	return nil
}

// unionSubstrings appends new lowercased substrings keeping order.
func unionSubstrings(existing, added []string) []string {
	result := []string{}
	seen := map[string]bool{}
	for _, substring := range append(append([]string{}, existing...), added...) {
		substring = strings.ToLower(strings.TrimSpace(substring))
		if substring == "" || seen[substring] {
			continue
		}
		seen[substring] = true
		result = append(result, substring)
	}
	return result
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (CategoryPattern, error) {
	var pattern CategoryPattern
	var substrings, processor string
	if err := row.Scan(
		&pattern.ID, &pattern.Name, &substrings, &pattern.Category, &processor, &pattern.Active,
	); err != nil {
		return CategoryPattern{}, err
	}
	if err := json.Unmarshal([]byte(substrings), &pattern.Substrings); err != nil {
		return CategoryPattern{}, fmt.Errorf("patterns of '%s': %w", pattern.Name, err)
	}
	pattern.Processor = ProcessorKind(processor)
	return pattern, nil
}

const selectPatternColumns = `SELECT id, name, patterns, category, processor_type, is_active FROM category_patterns`

func (s *SQLiteStore) ActivePatterns(ctx context.Context, processor ProcessorKind) ([]CategoryPattern, error) {
	rows, err := s.db.QueryContext(ctx,
		selectPatternColumns+` WHERE processor_type = ? AND is_active = 1 ORDER BY id ASC`,
		string(processor),
	)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	patterns := []CategoryPattern{}
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}

func (s *SQLiteStore) FindPattern(ctx context.Context, name string, processor ProcessorKind) (*CategoryPattern, error) {
	pattern, err := scanPattern(s.db.QueryRowContext(ctx,
		selectPatternColumns+` WHERE name = ? AND processor_type = ?`, name, string(processor),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pattern '%s': %w", name, err)
	}
	return &pattern, nil
}

func (s *SQLiteStore) SavePattern(ctx context.Context, pattern CategoryPattern) (CategoryPattern, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CategoryPattern{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanPattern(tx.QueryRowContext(ctx,
		selectPatternColumns+` WHERE name = ? AND processor_type = ?`, pattern.Name, string(pattern.Processor),
	))
	now := timestamp()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		pattern.Substrings = unionSubstrings(nil, pattern.Substrings)
		pattern.Active = true
		substrings, err := json.Marshal(pattern.Substrings)
		if err != nil {
			return CategoryPattern{}, err
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO category_patterns (name, patterns, category, processor_type, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)`,
			pattern.Name, string(substrings), pattern.Category, string(pattern.Processor), now, now,
		)
		if err != nil {
			return CategoryPattern{}, fmt.Errorf("insert pattern '%s': %w", pattern.Name, err)
		}
		if pattern.ID, err = result.LastInsertId(); err != nil {
			return CategoryPattern{}, fmt.Errorf("pattern id: %w", err)
		}
	case err != nil:
		return CategoryPattern{}, fmt.Errorf("find pattern '%s': %w", pattern.Name, err)
	default:
		existing.Substrings = unionSubstrings(existing.Substrings, pattern.Substrings)
		if pattern.Category != "" {
			existing.Category = pattern.Category
		}
		substrings, err := json.Marshal(existing.Substrings)
		if err != nil {
			return CategoryPattern{}, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE category_patterns SET patterns = ?, category = ?, updated_at = ? WHERE id = ?`,
			string(substrings), existing.Category, now, existing.ID,
		)
		if err != nil {
			return CategoryPattern{}, fmt.Errorf("update pattern '%s': %w", pattern.Name, err)
		}
		pattern = existing
	}
	if err := tx.Commit(); err != nil {
		return CategoryPattern{}, fmt.Errorf("commit pattern '%s': %w", pattern.Name, err)
	}
	return pattern, nil
}

// UsedCategories returns categories of stored patterns and transactions in order of first use.
func (s *SQLiteStore) UsedCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category FROM (
			SELECT category, 0 AS source, id FROM category_patterns
			UNION ALL
			SELECT transaction_category, 1 AS source, id FROM transactions
			WHERE transaction_category IS NOT NULL AND transaction_category != ''
		) ORDER BY source, id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	seen := map[string]bool{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}
	}
	return categories, rows.Err()
}

// CategoryTotals sums transactions stored from the file by transaction category and currency.
func (s *SQLiteStore) CategoryTotals(ctx context.Context, fileID int64) ([]CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(transaction_category, ''), currency, COUNT(*),
			COALESCE(SUM(debit_amount), 0), COALESCE(SUM(credit_amount), 0)
		FROM transactions
		WHERE processed_file_id = ?
		GROUP BY 1, 2`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	totals := []CategoryTotal{}
	for rows.Next() {
		var total CategoryTotal
		if err := rows.Scan(&total.Category, &total.Currency, &total.Count, &total.Expense, &total.Income); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}
