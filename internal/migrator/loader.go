package migrator

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql
var migrationsFS embed.FS

const upSuffix = ".up.sql"

// loadMigrations reads sql/<dialect>/NNNN_name.up.sql ordered by version.
func loadMigrations(fsys fs.FS, dialect string) ([]Migration, error) {
	dir := path.Join("sql", dialect)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations for %s: %w", dialect, err)
	}
	migs := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, upSuffix) {
			continue
		}
		numStr, title, ok := strings.Cut(strings.TrimSuffix(name, upSuffix), "_")
		if !ok {
			return nil, fmt.Errorf("bad migration file name %q", name)
		}
		version, err := strconv.Atoi(numStr)
		if err != nil {
			return nil, fmt.Errorf("bad migration version in %q: %w", name, err)
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		migs = append(migs, Migration{
			Version: version,
			Name:    title,
			UpSQL:   string(body),
		})
	}
	sort.Slice(migs, func(i, j int) bool {
		return migs[i].Version < migs[j].Version
	})
	for i, m := range migs {
		if m.Version != i+1 {
			return nil, fmt.Errorf("migrations for %s are not contiguous at version %d", dialect, m.Version)
		}
	}
	return migs, nil
}
