// ABOUTME: SQL-backed collection store keeping every collection in one records table
// ABOUTME: Implements GetAll/Create/Update/Delete with JSON fields and records sync outcomes
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// RecordStore is a collection store over a SQL database.
type RecordStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	logger  *log.Logger
}

var _ collection.Store = (*RecordStore)(nil)

// NewRecordStore creates a store over an opened and initialized database.
func NewRecordStore(db *sql.DB, dialect Dialect) *RecordStore {
	return &RecordStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log.Default().With("store", dialect.String()),
	}
}

// SetLogger replaces the store's logger.
func (s *RecordStore) SetLogger(logger *log.Logger) {
	s.logger = logger.With("store", s.dialect.String())
}

// DB exposes the underlying handle for sync state queries.
func (s *RecordStore) DB() *sql.DB {
	return s.db
}

// Dialect reports the SQL dialect of the store.
func (s *RecordStore) Dialect() Dialect {
	return s.dialect
}

// Close closes the database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// GetAll returns records in creation order. TotalCount is always the size of
// the whole collection.
func (s *RecordStore) GetAll(ctx context.Context, name string, opts models.ListOptions) (*models.ListResult, error) {
	res, err := s.getAll(ctx, name, opts)
	s.track(ctx, name, trackLoad, err)
	return res, err
}

func (s *RecordStore) getAll(ctx context.Context, name string, opts models.ListOptions) (*models.ListResult, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		rebind(s.dialect, `SELECT COUNT(*) FROM records WHERE collection = ?`), name,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", name, err)
	}

	query := `
		SELECT id, fields, created_at, updated_at
		FROM records
		WHERE collection = ?
		ORDER BY created_at ASC, id ASC
	`
	args := []any{name}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", name, err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", name, err)
	}

	return &models.ListResult{Items: items, TotalCount: total}, nil
}

// Get returns one record.
func (s *RecordStore) Get(ctx context.Context, name, id string) (models.Record, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT id, fields, created_at, updated_at
		FROM records
		WHERE collection = ? AND id = ?
	`), name, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, id, models.ErrRecordNotFound)
	}
	if err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

// Create inserts a record. The caller assigns the id.
func (s *RecordStore) Create(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	out, err := s.create(ctx, name, rec)
	s.track(ctx, name, trackWrite, err)
	return out, err
}

func (s *RecordStore) create(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, collection.ErrMissingID
	}

	fields, err := rec.EncodeFields()
	if err != nil {
		return models.Record{}, err
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx, rebind(s.dialect, `
		INSERT INTO records (collection, id, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`), name, rec.ID, string(fields), now, now)
	if isUniqueViolation(err) {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, rec.ID, collection.ErrDuplicateID)
	}
	if err != nil {
		return models.Record{}, err
	}

	out := rec.Clone()
	out.CreatedAt = &now
	out.UpdatedAt = &now
	return out, nil
}

// Update replaces every field of an existing record.
func (s *RecordStore) Update(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	out, err := s.update(ctx, name, rec)
	s.track(ctx, name, trackWrite, err)
	return out, err
}

func (s *RecordStore) update(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, collection.ErrMissingID
	}

	fields, err := rec.EncodeFields()
	if err != nil {
		return models.Record{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		rebind(s.dialect, `SELECT created_at FROM records WHERE collection = ? AND id = ?`),
		name, rec.ID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, rec.ID, models.ErrRecordNotFound)
	}
	if err != nil {
		return models.Record{}, err
	}

	now := s.now()
	result, err := tx.ExecContext(ctx, rebind(s.dialect, `
		UPDATE records
		SET fields = ?, updated_at = ?
		WHERE collection = ? AND id = ?
	`), string(fields), now, name, rec.ID)
	if err != nil {
		return models.Record{}, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.Record{}, err
	}
	if rows == 0 {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, rec.ID, models.ErrRecordNotFound)
	}

	if err := tx.Commit(); err != nil {
		return models.Record{}, err
	}

	out := rec.Clone()
	created := createdAt.UTC()
	out.CreatedAt = &created
	out.UpdatedAt = &now
	return out, nil
}

// Delete removes a record by id.
func (s *RecordStore) Delete(ctx context.Context, name, id string) error {
	err := s.delete(ctx, name, id)
	s.track(ctx, name, trackWrite, err)
	return err
}

func (s *RecordStore) delete(ctx context.Context, name, id string) error {
	result, err := s.db.ExecContext(ctx,
		rebind(s.dialect, `DELETE FROM records WHERE collection = ? AND id = ?`), name, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s/%s: %w", name, id, models.ErrRecordNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.Record, error) {
	var (
		rec       models.Record
		fields    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&rec.ID, &fields, &createdAt, &updatedAt); err != nil {
		return models.Record{}, err
	}

	decoded, err := models.DecodeFields([]byte(fields))
	if err != nil {
		return models.Record{}, err
	}
	rec.Fields = decoded

	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	rec.CreatedAt = &createdAt
	rec.UpdatedAt = &updatedAt
	return rec, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

type trackKind int

const (
	trackLoad trackKind = iota
	trackWrite
)

// track records the outcome of a store call in sync_state. Not-found and
// duplicate errors are caller mistakes, not sync failures, so they count as
// healthy.
func (s *RecordStore) track(ctx context.Context, name string, kind trackKind, err error) {
	if errors.Is(err, models.ErrRecordNotFound) || errors.Is(err, collection.ErrDuplicateID) {
		err = nil
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if terr := recordSyncOutcome(context.WithoutCancel(ctx), s.db, s.dialect, name, kind, s.now(), err); terr != nil {
		s.logger.Warn("failed to record sync state", "collection", name, "err", terr)
	}
}
