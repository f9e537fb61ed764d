// Package migrations applies the embedded draw-day schema to PostgreSQL and
// ClickHouse. Applied versions are recorded in a schema_migrations table so
// each file runs once per database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS

// Dialects, named after their embedded directories.
const (
	DialectPostgres   = "postgres"
	DialectClickHouse = "clickhouse"
)

// Migration is one embedded SQL file.
type Migration struct {
	Version string // file name prefix before the first '_', e.g. "001"
	Name    string
	SQL     string
}

// Load returns the non-empty migrations of dialect ordered by version.
func Load(dialect string) ([]Migration, error) {
	entries, err := fs.ReadDir(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dialect, err)
	}

	var out []Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %s already used by %s", name, version, prev)
		}
		seen[version] = name

		data, err := fs.ReadFile(files, path.Join(dialect, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// SplitStatements splits a SQL script on top-level semicolons. Semicolons
// inside single-quoted literals, where a doubled quote escapes, and inside
// -- comments do not split.
// Comment-only fragments are dropped.
func SplitStatements(script string) ([]string, error) {
	var (
		stmts   []string
		current strings.Builder
		hasCode bool
	)
	flush := func() {
		if hasCode {
			stmts = append(stmts, strings.TrimSpace(current.String()))
		}
		current.Reset()
		hasCode = false
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				i = len(script)
			} else {
				i += end
				current.WriteByte('\n')
			}
		case ch == '\'':
			start := i
			i++
			for ; i < len(script); i++ {
				if script[i] != '\'' {
					continue
				}
				if i+1 < len(script) && script[i+1] == '\'' {
					i++
					continue
				}
				break
			}
			if i >= len(script) {
				return nil, fmt.Errorf("unterminated string literal at offset %d", start)
			}
			current.WriteString(script[start : i+1])
			hasCode = true
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
			if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
				hasCode = true
			}
		}
	}
	flush()
	return stmts, nil
}
