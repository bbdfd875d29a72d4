package tasks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// DefaultDatabase is backed up when no database identifier is given.
const DefaultDatabase = "DATABASE_URL"

var configVarPrefix = regexp.MustCompile(`^[A-Z_]+`)

// ConfigVarSource supplies the config vars of an app. Implemented by repositories.ConfigVarRepository.
type ConfigVarSource interface {
	Values(app string) (map[string]string, error)
}

// StaticVars is a [ConfigVarSource] backed by a fixed map, used when no local store is configured.
type StaticVars map[string]string

func (s StaticVars) Values(string) (map[string]string, error) { return s, nil }

// DatabaseRef is a resolved database identifier.
type DatabaseRef struct {
	Name string // config var name, e.g. HEROKU_POSTGRESQL_RED_URL
	URL  string // postgres:// URL
}

// Endpoint is one side of a raw transfer.
type Endpoint struct {
	URL  string
	Name string // config var name, URL, BACKUP or EXTERNAL_BACKUP
}

// postgresVarNames returns the sorted names of vars whose value is a postgres:// URL.
func postgresVarNames(vars map[string]string) []string {
	var names []string
	for name, value := range vars {
		if models.IsPostgresURL(value) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func options(vars map[string]string) string {
	return fmt.Sprintf("(Options are: %s)", strings.Join(postgresVarNames(vars), ", "))
}

// ResolveDatabase maps a database identifier to its config var name and URL.
//
// An empty name selects [DefaultDatabase] when useDefault is set; the returned note then tells the user which
// database was chosen. A name that shares its URL with an add-on variable resolves to that add-on variable.
func (e *BackupEngine) ResolveDatabase(name string, useDefault bool) (DatabaseRef, string, error) {
	vars, err := e.vars.Values(e.app)
	if err != nil {
		return DatabaseRef{}, "", fmt.Errorf("failed to load config vars: %w", err)
	}
	return resolveDatabase(vars, name, useDefault)
}

func resolveDatabase(vars map[string]string, name string, useDefault bool) (DatabaseRef, string, error) {
	var note string
	if name == "" {
		if !useDefault {
			return DatabaseRef{}, "", fmt.Errorf("%w: DB is required. %s", shared.ErrMissingArgument, options(vars))
		}
		name = DefaultDatabase
		note = fmt.Sprintf("Backing up the default DB, %s.", name)
		if pg := postgresVarNames(vars); len(pg) > 2 {
			note += " " + options(vars)
		}
	}

	if url, ok := vars[name]; ok {
		for _, addon := range postgresVarNames(vars) {
			if addon != DefaultDatabase && vars[addon] == url {
				return DatabaseRef{Name: addon, URL: url}, note, nil
			}
		}
		if name == DefaultDatabase {
			return DatabaseRef{Name: name, URL: url}, note, nil
		}
	}

	return DatabaseRef{}, note, fmt.Errorf("%w: DB %s not found in config. %s", shared.ErrDatabaseNotFound, name, options(vars))
}

// ResolveNamedURL translates a transfer endpoint given on the command line.
//
// UPPER_CASE names are config vars, postgres:// URLs must belong to a config var, http(s):// URLs pass through as
// URL, and anything else names a backup.
func (e *BackupEngine) ResolveNamedURL(input string) (Endpoint, error) {
	vars, err := e.vars.Values(e.app)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to load config vars: %w", err)
	}
	return resolveNamedURL(vars, input)
}

func resolveNamedURL(vars map[string]string, input string) (Endpoint, error) {
	switch {
	case input == "":
		return Endpoint{}, fmt.Errorf("%w: endpoint", shared.ErrMissingArgument)
	case configVarPrefix.MatchString(input):
		url, ok := vars[input]
		if !ok {
			return Endpoint{}, fmt.Errorf("%w: %s not found in app config variables", shared.ErrDatabaseNotFound, input)
		}
		return Endpoint{URL: url, Name: input}, nil
	case models.IsPostgresURL(input):
		for _, name := range postgresVarNames(vars) {
			if vars[name] == input {
				return Endpoint{URL: input, Name: name}, nil
			}
		}
		return Endpoint{}, fmt.Errorf("%w: %s not found in app config variables", shared.ErrDatabaseNotFound, input)
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return Endpoint{URL: input, Name: models.URLName}, nil
	default:
		return Endpoint{URL: "backup://" + input, Name: models.BackupName}, nil
	}
}
