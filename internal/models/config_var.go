package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var configVarName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ConfigVar is an app config variable persisted in the local store.
//
// Database identifiers such as DATABASE_URL resolve through these values.
type ConfigVar struct {
	id        string
	sequence  int
	app       string
	name      string
	value     string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// IsPostgresURL reports whether value is a postgres:// database URL.
func IsPostgresURL(value string) bool { return strings.HasPrefix(value, "postgres://") }

// NewConfigVar creates an unsaved ConfigVar; the repository assigns its ID.
func NewConfigVar(sequence int, app, name, value string) *ConfigVar {
	now := time.Now()
	return &ConfigVar{
		sequence:  sequence,
		app:       app,
		name:      name,
		value:     value,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *ConfigVar) ID() string { return c.id }
func (c *ConfigVar) Sequence() int { return c.sequence }
func (c *ConfigVar) App() string { return c.app }
func (c *ConfigVar) Name() string { return c.name }
func (c *ConfigVar) Value() string { return c.value }
func (c *ConfigVar) CreatedAt() time.Time { return c.createdAt }
func (c *ConfigVar) UpdatedAt() time.Time { return c.updatedAt }
func (c *ConfigVar) DeletedAt() *time.Time { return c.deletedAt }

func (c *ConfigVar) SetID(id string) { c.id = id }
func (c *ConfigVar) SetSequence(seq int) { c.sequence = seq }
func (c *ConfigVar) SetValue(value string) { c.value = value }
func (c *ConfigVar) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *ConfigVar) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *ConfigVar) SetDeletedAt(t *time.Time) { c.deletedAt = t }
func (c *ConfigVar) IsPostgresURL() bool { return IsPostgresURL(c.value) }
func (c *ConfigVar) IsDeleted() bool { return c.deletedAt != nil }

// Validate checks the app and variable name.
func (c *ConfigVar) Validate() error {
	if c.app == "" {
		return fmt.Errorf("app is required")
	}
	if !configVarName.MatchString(c.name) {
		return fmt.Errorf("invalid config var name %q", c.name)
	}
	return nil
}
