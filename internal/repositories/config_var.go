package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

const configVarColumns = `id, sequence, app, name, value, created_at, updated_at, deleted_at`

// ConfigVarRepository implements models.Repository[*models.ConfigVar] for app config variables.
type ConfigVarRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ConfigVar] = (*ConfigVarRepository)(nil)

// NewConfigVarRepository creates a new ConfigVarRepository with the given database connection
func NewConfigVarRepository(db *sql.DB) *ConfigVarRepository {
	return &ConfigVarRepository{db: db}
}

// Create inserts a new config var with generated ID and sequence
func (r *ConfigVarRepository) Create(cv *models.ConfigVar) error {
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "config_vars")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	cv.SetID(shared.GenerateID())
	cv.SetSequence(sequence)

	query := `INSERT INTO config_vars (` + configVarColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`
	if _, err := r.db.Exec(query, cv.ID(), cv.Sequence(), cv.App(), cv.Name(), cv.Value(), cv.CreatedAt(), cv.UpdatedAt()); err != nil {
		return fmt.Errorf("failed to insert config var: %w", err)
	}
	return nil
}

// Get retrieves a config var by ID, excluding soft-deleted rows
func (r *ConfigVarRepository) Get(id string) (*models.ConfigVar, error) {
	query := `SELECT ` + configVarColumns + ` FROM config_vars WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByName retrieves the live config var called name for app
func (r *ConfigVarRepository) GetByName(app, name string) (*models.ConfigVar, error) {
	query := `SELECT ` + configVarColumns + ` FROM config_vars WHERE app = ? AND name = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, app, name))
}

// Update changes the value of an existing config var
func (r *ConfigVarRepository) Update(cv *models.ConfigVar) error {
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	cv.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE config_vars SET value = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		cv.Value(), now, cv.ID())
	if err != nil {
		return fmt.Errorf("failed to update config var: %w", err)
	}
	return expectAffected(result, cv.ID())
}

// Delete soft-deletes a config var by ID
func (r *ConfigVarRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE config_vars SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete config var: %w", err)
	}
	return expectAffected(result, id)
}

// List retrieves live config vars ordered by name.
//
// Supported criteria: "app" (exact) and "prefix" (name prefix).
func (r *ConfigVarRepository) List(criteria map[string]any) ([]*models.ConfigVar, error) {
	query := `SELECT ` + configVarColumns + ` FROM config_vars WHERE deleted_at IS NULL`
	args := []any{}

	if app, ok := criteria["app"].(string); ok && app != "" {
		query += " AND app = ?"
		args = append(args, app)
	}
	if prefix, ok := criteria["prefix"].(string); ok && prefix != "" {
		query += " AND name LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(prefix)+"%")
	}

	query += " ORDER BY name ASC, sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query config vars: %w", err)
	}
	defer rows.Close()

	var vars []*models.ConfigVar
	for rows.Next() {
		cv, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		vars = append(vars, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return vars, nil
}

// Set creates name for app or updates its value when it already exists.
func (r *ConfigVarRepository) Set(app, name, value string) (*models.ConfigVar, error) {
	existing, err := r.GetByName(app, name)
	switch {
	case err == nil:
		existing.SetValue(value)
		if err := r.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, shared.ErrConfigVarNotFound):
		cv := models.NewConfigVar(0, app, name, value)
		if err := r.Create(cv); err != nil {
			return nil, err
		}
		return cv, nil
	default:
		return nil, err
	}
}

// Unset soft-deletes name for app.
func (r *ConfigVarRepository) Unset(app, name string) error {
	cv, err := r.GetByName(app, name)
	if err != nil {
		return err
	}
	return r.Delete(cv.ID())
}

// Values returns the live config vars of app as a name/value map.
func (r *ConfigVarRepository) Values(app string) (map[string]string, error) {
	vars, err := r.List(map[string]any{"app": app})
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(vars))
	for _, cv := range vars {
		values[cv.Name()] = cv.Value()
	}
	return values, nil
}

// Seed sets every entry of values for app, in name order.
func (r *ConfigVarRepository) Seed(app string, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := r.Set(app, name, values[name]); err != nil {
			return fmt.Errorf("failed to seed %s: %w", name, err)
		}
	}
	return nil
}

func (r *ConfigVarRepository) scan(row scanner) (*models.ConfigVar, error) {
	var (
		id, app, name, value string
		sequence             int
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	err := row.Scan(&id, &sequence, &app, &name, &value, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrConfigVarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan config var: %w", err)
	}

	cv := models.NewConfigVar(sequence, app, name, value)
	cv.SetID(id)
	cv.SetCreatedAt(createdAt)
	cv.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		cv.SetDeletedAt(&deletedAt.Time)
	}
	return cv, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrConfigVarNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
