package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scan reads every migration file at the root of fsys, sorted by numeric version.
func Scan(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, newMigrationError("", ".", "read directory", err)
	}

	var migrations []Migration
	seen := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := parseFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}

		if existing, ok := seen[m.Version]; ok {
			return nil, newMigrationError(m.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, m.Version, existing, entry.Name()))
		}
		seen[m.Version] = entry.Name()
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})

	return migrations, nil
}

func parseFile(fsys fs.FS, name string) (Migration, error) {
	matches := fileNamePattern.FindStringSubmatch(name)
	if len(matches) != 3 {
		return Migration{}, newMigrationError("", name, "validate filename",
			fmt.Errorf("%w: filename %q does not match {version}_{description}.sql", ErrInvalidMigrationFile, name))
	}

	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, newMigrationError(matches[1], name, "read file", err)
	}

	sql := string(content)
	if len(splitStatements(sql)) == 0 {
		return Migration{}, newMigrationError(matches[1], name, "validate content",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sql)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	sum := sha256.Sum256(content)
	return Migration{
		Version:     matches[1],
		Description: description,
		SQL:         sql,
		FilePath:    name,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

func descriptionFromContent(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-- Description:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "-- Description:"))
		}
	}
	return ""
}

// splitStatements splits a file on semicolons and drops comment-only fragments.
func splitStatements(sql string) []string {
	var statements []string
	for _, raw := range strings.Split(sql, ";") {
		var kept []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			kept = append(kept, line)
		}
		if stmt := strings.TrimSpace(strings.Join(kept, "\n")); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
