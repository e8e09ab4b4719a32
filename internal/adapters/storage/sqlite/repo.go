package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/hoshu/internal/app"
	"github.com/hylla/hoshu/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores records, their specifications and period results.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating its directory and schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			name TEXT NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			cycle REAL NOT NULL DEFAULT 0,
			installed TEXT NOT NULL DEFAULT '',
			extra_json TEXT NOT NULL DEFAULT '{}',
			created_by_actor TEXT NOT NULL DEFAULT 'hoshu-user',
			updated_by_actor TEXT NOT NULL DEFAULT 'hoshu-user',
			updated_by_type TEXT NOT NULL DEFAULT 'user',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS record_specs (
			record_id TEXT NOT NULL,
			spec_key TEXT NOT NULL,
			spec_value TEXT NOT NULL DEFAULT '',
			spec_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(record_id, spec_key),
			FOREIGN KEY(record_id) REFERENCES records(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS record_results (
			record_id TEXT NOT NULL,
			period TEXT NOT NULL,
			planned INTEGER NOT NULL DEFAULT 0,
			actual INTEGER NOT NULL DEFAULT 0,
			plan_cost REAL NOT NULL DEFAULT 0,
			actual_cost REAL NOT NULL DEFAULT 0,
			PRIMARY KEY(record_id, period),
			FOREIGN KEY(record_id) REFERENCES records(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			actor_id TEXT NOT NULL DEFAULT 'hoshu-user',
			actor_type TEXT NOT NULL DEFAULT 'user',
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_parent_position ON records(parent_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_created_at ON change_events(created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListRecords lists every stored record ordered by parent and position.
func (r *Repository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, position, name, code, cycle, installed, extra_json,
			created_by_actor, updated_by_actor, updated_by_type, created_at, updated_at
		FROM records
		ORDER BY parent_id ASC, position ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	out := []domain.Record{}
	index := map[string]int{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if err := loadSpecs(ctx, r.db, out, index, ""); err != nil {
		return nil, err
	}
	if err := loadResults(ctx, r.db, out, index, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecord returns one record with its specs and results.
func (r *Repository) GetRecord(ctx context.Context, id string) (domain.Record, error) {
	return getRecordByID(ctx, r.db, id)
}

// CreateRecord inserts a record and logs a create event.
func (r *Repository) CreateRecord(ctx context.Context, rec domain.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRecord(ctx, tx, rec); err != nil {
		return err
	}
	err = insertChangeEvent(ctx, tx, domain.ChangeEvent{
		RecordID:  rec.ID,
		Operation: domain.ChangeOperationCreate,
		ActorID:   chooseActorID(rec.CreatedByActor, rec.UpdatedByActor),
		ActorType: normalizeActorType(rec.UpdatedByType),
		Metadata: map[string]string{
			"name":      rec.Name,
			"parent_id": rec.ParentID,
			"position":  strconv.Itoa(rec.Position),
		},
		OccurredAt: rec.CreatedAt,
	})
	if err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// UpdateRecord replaces one stored record and logs op with the changed fields.
func (r *Repository) UpdateRecord(ctx context.Context, rec domain.Record, op domain.ChangeOperation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getRecordByID(ctx, tx, rec.ID)
	if err != nil {
		return err
	}
	if err = updateRecord(ctx, tx, prev, rec, op); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// SaveRecords upserts records in one transaction, logging op per changed record.
func (r *Repository) SaveRecords(ctx context.Context, records []domain.Record, op domain.ChangeOperation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = upsertRecords(ctx, tx, records, op); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ReplaceRecords makes the stored set equal to records, deleting the rest.
func (r *Repository) ReplaceRecords(ctx context.Context, records []domain.Record, op domain.ChangeOperation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		keep[rec.ID] = struct{}{}
	}
	ids, err := listRecordIDs(ctx, tx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			continue
		}
		if err = deleteRecord(ctx, tx, id); err != nil {
			return err
		}
	}
	if err = upsertRecords(ctx, tx, records, op); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// DeleteRecord deletes one record and logs a delete event.
func (r *Repository) DeleteRecord(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteRecord(ctx, tx, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ListChangeEvents lists recent events for activity-log consumption.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, record_id, operation, actor_id, actor_type, metadata_json, created_at
		FROM change_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			actorType   string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.RecordID, &opRaw, &event.ActorID, &actorType, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.ActorType = normalizeActorType(domain.ActorType(actorType))
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// queryer represents a read contract shared by DB and Tx.
type queryer interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// dbtx is the union used by helpers that read and write inside one transaction.
type dbtx interface {
	queryer
	execerContext
}

// getRecordByID loads one record with its children tables.
func getRecordByID(ctx context.Context, q queryer, id string) (domain.Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, parent_id, position, name, code, cycle, installed, extra_json,
			created_by_actor, updated_by_actor, updated_by_type, created_at, updated_at
		FROM records
		WHERE id = ?
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, err
	}
	out := []domain.Record{rec}
	index := map[string]int{rec.ID: 0}
	if err := loadSpecs(ctx, q, out, index, rec.ID); err != nil {
		return domain.Record{}, err
	}
	if err := loadResults(ctx, q, out, index, rec.ID); err != nil {
		return domain.Record{}, err
	}
	return out[0], nil
}

// loadSpecs attaches specification rows to records by index, optionally
// limited to one record id.
func loadSpecs(ctx context.Context, q queryer, records []domain.Record, index map[string]int, recordID string) error {
	query := `SELECT record_id, spec_key, spec_value, spec_order FROM record_specs`
	args := []any{}
	if recordID != "" {
		query += ` WHERE record_id = ?`
		args = append(args, recordID)
	}
	query += ` ORDER BY record_id ASC, spec_order ASC, spec_key ASC`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recordID string
			spec     domain.Spec
		)
		if err := rows.Scan(&recordID, &spec.Key, &spec.Value, &spec.Order); err != nil {
			return err
		}
		idx, ok := index[recordID]
		if !ok {
			continue
		}
		records[idx].Specs = append(records[idx].Specs, spec)
	}
	return rows.Err()
}

// loadResults attaches period result rows to records by index, optionally
// limited to one record id.
func loadResults(ctx context.Context, q queryer, records []domain.Record, index map[string]int, recordID string) error {
	query := `SELECT record_id, period, planned, actual, plan_cost, actual_cost FROM record_results`
	args := []any{}
	if recordID != "" {
		query += ` WHERE record_id = ?`
		args = append(args, recordID)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recordID string
			period   string
			res      domain.PeriodResult
		)
		if err := rows.Scan(&recordID, &period, &res.Planned, &res.Actual, &res.PlanCost, &res.ActualCost); err != nil {
			return err
		}
		idx, ok := index[recordID]
		if !ok {
			continue
		}
		if records[idx].Results == nil {
			records[idx].Results = map[string]domain.PeriodResult{}
		}
		records[idx].Results[period] = res
	}
	return rows.Err()
}

// insertRecord writes a new record row plus its specs and results.
func insertRecord(ctx context.Context, execer execerContext, rec domain.Record) error {
	extraJSON, err := json.Marshal(nonNilExtra(rec.Extra))
	if err != nil {
		return fmt.Errorf("encode record extra: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO records(
			id, parent_id, position, name, code, cycle, installed, extra_json,
			created_by_actor, updated_by_actor, updated_by_type, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.ParentID,
		rec.Position,
		rec.Name,
		rec.Code,
		rec.Cycle,
		rec.Installed,
		string(extraJSON),
		chooseActorID(rec.CreatedByActor),
		chooseActorID(rec.UpdatedByActor, rec.CreatedByActor),
		string(normalizeActorType(rec.UpdatedByType)),
		ts(normalizeEventTS(rec.CreatedAt)),
		ts(normalizeEventTS(rec.UpdatedAt)),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return writeChildren(ctx, execer, rec)
}

// updateRecord rewrites an existing record and logs op when anything changed.
func updateRecord(ctx context.Context, execer execerContext, prev, rec domain.Record, op domain.ChangeOperation) error {
	extraJSON, err := json.Marshal(nonNilExtra(rec.Extra))
	if err != nil {
		return fmt.Errorf("encode record extra: %w", err)
	}
	res, err := execer.ExecContext(ctx, `
		UPDATE records
		SET parent_id = ?, position = ?, name = ?, code = ?, cycle = ?, installed = ?, extra_json = ?,
		    updated_by_actor = ?, updated_by_type = ?, updated_at = ?
		WHERE id = ?
	`,
		rec.ParentID,
		rec.Position,
		rec.Name,
		rec.Code,
		rec.Cycle,
		rec.Installed,
		string(extraJSON),
		chooseActorID(rec.UpdatedByActor, prev.UpdatedByActor),
		string(normalizeActorType(rec.UpdatedByType)),
		ts(normalizeEventTS(rec.UpdatedAt)),
		rec.ID,
	)
	if err != nil {
		return err
	}
	if err := translateNoRows(res); err != nil {
		return err
	}
	if err := writeChildren(ctx, execer, rec); err != nil {
		return err
	}

	fields := changedRecordFields(prev, rec)
	if len(fields) == 0 {
		return nil
	}
	return insertChangeEvent(ctx, execer, domain.ChangeEvent{
		RecordID:  rec.ID,
		Operation: normalizeChangeOperation(string(op)),
		ActorID:   chooseActorID(rec.UpdatedByActor, prev.UpdatedByActor),
		ActorType: normalizeActorType(rec.UpdatedByType),
		Metadata: map[string]string{
			"changed_fields": strings.Join(fields, ","),
		},
		OccurredAt: rec.UpdatedAt,
	})
}

// upsertRecords inserts new records and updates existing ones. Inserts are
// always logged as creates; updates are logged as op.
func upsertRecords(ctx context.Context, tx dbtx, records []domain.Record, op domain.ChangeOperation) error {
	for _, rec := range records {
		prev, err := getRecordByID(ctx, tx, rec.ID)
		switch {
		case errors.Is(err, app.ErrNotFound):
			if err := insertRecord(ctx, tx, rec); err != nil {
				return err
			}
			if err := insertChangeEvent(ctx, tx, domain.ChangeEvent{
				RecordID:  rec.ID,
				Operation: domain.ChangeOperationCreate,
				ActorID:   chooseActorID(rec.CreatedByActor, rec.UpdatedByActor),
				ActorType: normalizeActorType(rec.UpdatedByType),
				Metadata: map[string]string{
					"name":      rec.Name,
					"parent_id": rec.ParentID,
					"position":  strconv.Itoa(rec.Position),
				},
				OccurredAt: rec.CreatedAt,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := updateRecord(ctx, tx, prev, rec, op); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteRecord removes a record with its spec and result rows and logs a delete event.
func deleteRecord(ctx context.Context, tx dbtx, id string) error {
	rec, err := getRecordByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_specs WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("delete record specs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_results WHERE record_id = ?`, id); err != nil {
		return fmt.Errorf("delete record results: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := translateNoRows(res); err != nil {
		return err
	}
	return insertChangeEvent(ctx, tx, domain.ChangeEvent{
		RecordID:  rec.ID,
		Operation: domain.ChangeOperationDelete,
		ActorID:   chooseActorID(rec.UpdatedByActor, rec.CreatedByActor),
		ActorType: normalizeActorType(rec.UpdatedByType),
		Metadata: map[string]string{
			"name":      rec.Name,
			"parent_id": rec.ParentID,
		},
		OccurredAt: time.Now().UTC(),
	})
}

// listRecordIDs returns every stored record id.
func listRecordIDs(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM records ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// writeChildren replaces the spec and result rows of rec.
func writeChildren(ctx context.Context, execer execerContext, rec domain.Record) error {
	if _, err := execer.ExecContext(ctx, `DELETE FROM record_specs WHERE record_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear record specs: %w", err)
	}
	for _, spec := range rec.Specs {
		if _, err := execer.ExecContext(ctx, `
			INSERT INTO record_specs(record_id, spec_key, spec_value, spec_order)
			VALUES (?, ?, ?, ?)
		`, rec.ID, spec.Key, spec.Value, spec.Order); err != nil {
			return fmt.Errorf("insert record spec: %w", err)
		}
	}
	if _, err := execer.ExecContext(ctx, `DELETE FROM record_results WHERE record_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear record results: %w", err)
	}
	periods := slices.Sorted(maps.Keys(rec.Results))
	for _, period := range periods {
		res := rec.Results[period]
		if res.IsZero() {
			continue
		}
		if _, err := execer.ExecContext(ctx, `
			INSERT INTO record_results(record_id, period, planned, actual, plan_cost, actual_cost)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, period, boolInt(res.Planned), boolInt(res.Actual), res.PlanCost, res.ActualCost); err != nil {
			return fmt.Errorf("insert record result: %w", err)
		}
	}
	return nil
}

// insertChangeEvent inserts a change-event ledger record.
func insertChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(record_id, operation, actor_id, actor_type, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.RecordID,
		string(event.Operation),
		chooseActorID(event.ActorID),
		string(normalizeActorType(event.ActorType)),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// changedRecordFields identifies a deterministic set of meaningful changes for metadata.
func changedRecordFields(prev, next domain.Record) []string {
	changed := make([]string, 0)
	if prev.ParentID != next.ParentID {
		changed = append(changed, "parent_id")
	}
	if prev.Position != next.Position {
		changed = append(changed, "position")
	}
	if prev.Name != next.Name {
		changed = append(changed, "name")
	}
	if prev.Code != next.Code {
		changed = append(changed, "code")
	}
	if prev.Cycle != next.Cycle {
		changed = append(changed, "cycle")
	}
	if prev.Installed != next.Installed {
		changed = append(changed, "installed")
	}
	if !slices.Equal(prev.Specs, next.Specs) {
		changed = append(changed, "specs")
	}
	if !equalResults(prev.Results, next.Results) {
		changed = append(changed, "results")
	}
	if !maps.Equal(prev.Extra, next.Extra) {
		changed = append(changed, "extra")
	}
	return changed
}

// equalResults compares stored results, ignoring empty buckets.
func equalResults(a, b map[string]domain.PeriodResult) bool {
	for key, res := range a {
		if res.IsZero() {
			continue
		}
		if b[key] != res {
			return false
		}
	}
	for key, res := range b {
		if res.IsZero() {
			continue
		}
		if a[key] != res {
			return false
		}
	}
	return true
}

// chooseActorID returns the first non-empty actor id or the default local actor.
func chooseActorID(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" {
			return candidate
		}
	}
	return domain.DefaultActorID
}

// normalizeActorType applies a default when actor type is unset or unsupported.
func normalizeActorType(actorType domain.ActorType) domain.ActorType {
	switch strings.TrimSpace(strings.ToLower(string(actorType))) {
	case string(domain.ActorTypeAgent):
		return domain.ActorTypeAgent
	case string(domain.ActorTypeSystem):
		return domain.ActorTypeSystem
	default:
		return domain.ActorTypeUser
	}
}

// normalizeChangeOperation canonicalizes persisted operation values.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch domain.ChangeOperation(strings.TrimSpace(strings.ToLower(raw))) {
	case domain.ChangeOperationCreate:
		return domain.ChangeOperationCreate
	case domain.ChangeOperationPaste:
		return domain.ChangeOperationPaste
	case domain.ChangeOperationDelete:
		return domain.ChangeOperationDelete
	default:
		return domain.ChangeOperationEdit
	}
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one records row.
func scanRecord(s scanner) (domain.Record, error) {
	var (
		rec        domain.Record
		extraRaw   string
		actorType  string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&rec.ID,
		&rec.ParentID,
		&rec.Position,
		&rec.Name,
		&rec.Code,
		&rec.Cycle,
		&rec.Installed,
		&extraRaw,
		&rec.CreatedByActor,
		&rec.UpdatedByActor,
		&actorType,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return domain.Record{}, err
	}
	if strings.TrimSpace(extraRaw) == "" {
		extraRaw = "{}"
	}
	if err := json.Unmarshal([]byte(extraRaw), &rec.Extra); err != nil {
		return domain.Record{}, fmt.Errorf("decode records.extra_json: %w", err)
	}
	rec.Extra = nonNilExtra(rec.Extra)
	rec.Results = map[string]domain.PeriodResult{}
	rec.UpdatedByType = normalizeActorType(domain.ActorType(actorType))
	rec.CreatedAt = parseTS(createdRaw)
	rec.UpdatedAt = parseTS(updatedRaw)
	return rec, nil
}

// boolInt stores a flag as 0 or 1.
func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// nonNilExtra returns in or an empty map.
func nonNilExtra(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}

// translateNoRows maps zero affected rows to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
