package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/shared"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("sync run not found")

const syncRunColumns = `
	id, sequence, list_name, list_id, dataset_path, dry_run, state, items_total,
	added, already_in_list, not_found, failed, error_message, started_at, completed_at
`

// SyncRunRepository implements models.Repository[*models.SyncRun] for the run history.
type SyncRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	return r.CreateWithItems(run, nil)
}

// CreateWithItems inserts a run and its item results in one transaction.
func (r *SyncRunRepository) CreateWithItems(run *models.SyncRun, items []models.SyncRunItem) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	query := `
		INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		id,
		sequence,
		run.ListName,
		nullString(run.ListID),
		run.DatasetPath,
		run.DryRun,
		string(run.State),
		run.ItemsTotal,
		run.Summary.Added,
		run.Summary.AlreadyInList,
		run.Summary.NotFound,
		run.Summary.Failed,
		nullString(run.Error),
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	if err := insertItems(tx, id, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync run: %w", err)
	}

	run.SetID(id)
	run.Sequence = sequence
	return nil
}

func insertItems(tx *sql.Tx, runID string, items []models.SyncRunItem) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO sync_run_items (run_id, position, title, year, disposition, outcome, external_id, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			runID,
			item.Position,
			item.Title,
			nullInt(item.Year),
			item.Disposition.String(),
			item.Outcome.String(),
			nullString(item.ExternalID),
			nullString(item.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", item.Position, err)
		}
	}

	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`
	return scanRun(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a run by its sequence number
func (r *SyncRunRepository) GetBySequence(sequence int) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE sequence = ?`
	return scanRun(r.db.QueryRow(query, sequence))
}

// Update modifies the state, counts, and completion of an existing run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET list_id = ?, state = ?, items_total = ?, added = ?, already_in_list = ?,
			not_found = ?, failed = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(run.ListID),
		string(run.State),
		run.ItemsTotal,
		run.Summary.Added,
		run.Summary.AlreadyInList,
		run.Summary.NotFound,
		run.Summary.Failed,
		nullString(run.Error),
		run.CompletedAt,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID())
	}

	return nil
}

// List retrieves the most recent runs, newest first. A limit of zero or less returns every run.
func (r *SyncRunRepository) List(limit int) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Items retrieves the item results of a run in dataset order
func (r *SyncRunRepository) Items(runID string) ([]models.SyncRunItem, error) {
	query := `
		SELECT run_id, position, title, year, disposition, outcome, external_id, error_message
		FROM sync_run_items
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run items: %w", err)
	}
	defer rows.Close()

	var items []models.SyncRunItem
	for rows.Next() {
		var (
			item        models.SyncRunItem
			year        sql.NullInt64
			disposition string
			outcome     string
			externalID  sql.NullString
			errorMsg    sql.NullString
		)

		if err := rows.Scan(&item.RunID, &item.Position, &item.Title, &year, &disposition, &outcome, &externalID, &errorMsg); err != nil {
			return nil, fmt.Errorf("failed to scan sync run item: %w", err)
		}

		if year.Valid {
			y := int(year.Int64)
			item.Year = &y
		}
		if item.Disposition, err = models.ParseDisposition(disposition); err != nil {
			return nil, err
		}
		if item.Outcome, err = models.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		item.ExternalID = externalID.String
		item.Error = errorMsg.String

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row from [sql.Row] or [sql.Rows] into a [models.SyncRun]
func scanRun(row scanner) (*models.SyncRun, error) {
	var (
		id          string
		run         models.SyncRun
		listID      sql.NullString
		state       string
		errorMsg    sql.NullString
		startedAt   time.Time
		completedAt sql.NullTime
	)

	err := row.Scan(
		&id, &run.Sequence, &run.ListName, &listID, &run.DatasetPath, &run.DryRun, &state, &run.ItemsTotal,
		&run.Summary.Added, &run.Summary.AlreadyInList, &run.Summary.NotFound, &run.Summary.Failed,
		&errorMsg, &startedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run.SetID(id)
	run.ListID = listID.String
	run.State = models.RunState(state)
	run.Error = errorMsg.String
	run.StartedAt = startedAt
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}
