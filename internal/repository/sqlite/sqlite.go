// Package sqlite persists link ownership. The mixer leaves its links in the
// graph on shutdown, so the ownership record is the only way a restarted
// process can tell its own links from everyone else's.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"piemixer/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements service.LinkStore using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (creating if needed) the ownership database at the given path
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS owned_links (
		source_port INTEGER NOT NULL,
		dest_port INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (source_port, dest_port)
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveLink records ownership of a link
func (r *Repository) SaveLink(ctx context.Context, link domain.LinkKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO owned_links (source_port, dest_port)
		VALUES (?, ?)
	`, link.SourcePort, link.DestPort)
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

// DeleteLink drops ownership of a link
func (r *Repository) DeleteLink(ctx context.Context, link domain.LinkKey) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM owned_links WHERE source_port = ? AND dest_port = ?
	`, link.SourcePort, link.DestPort)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

// ListLinks returns all recorded links ordered by port pair
func (r *Repository) ListLinks(ctx context.Context) ([]domain.LinkKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_port, dest_port FROM owned_links
		ORDER BY source_port, dest_port
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []domain.LinkKey
	for rows.Next() {
		var link domain.LinkKey
		if err := rows.Scan(&link.SourcePort, &link.DestPort); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}
