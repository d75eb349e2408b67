package store

import (
	"context"
	"fmt"
)

// InsertBranch stores a branch of repoID.
func (d *DB) InsertBranch(ctx context.Context, repoID int64, name string) (int64, error) {
	id, err := d.insert(ctx,
		`INSERT INTO branches (name, repo_id) VALUES (?, ?)`,
		name, repoID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating branch %s: %w", name, err)
	}
	return id, nil
}

// BranchID looks a branch up by name within a repository.
func (d *DB) BranchID(ctx context.Context, repoID int64, name string) (int64, bool, error) {
	id, found, err := d.LookupID(ctx,
		`SELECT id FROM branches WHERE name = ? AND repo_id = ?`, name, repoID)
	if err != nil {
		return 0, false, fmt.Errorf("looking up branch %s: %w", name, err)
	}
	return id, found, nil
}

// BranchesForRepo returns branch name to id for every stored branch of repoID.
func (d *DB) BranchesForRepo(ctx context.Context, repoID int64) (map[string]int64, error) {
	rows, err := d.Query(ctx, `SELECT id, name FROM branches WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	branches := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		branches[name] = id
	}
	return branches, rows.Err()
}

// DeleteBranch removes a branch. Commits that pointed at it keep existing
// with a null branch.
func (d *DB) DeleteBranch(ctx context.Context, id int64) error {
	// Same effect as ON DELETE SET NULL, without relying on enforcement.
	if _, err := d.Exec(ctx, `UPDATE commits SET branch_id = NULL WHERE branch_id = ?`, id); err != nil {
		return fmt.Errorf("detaching commits from branch %d: %w", id, err)
	}
	if _, err := d.Exec(ctx, `DELETE FROM branches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting branch %d: %w", id, err)
	}
	return nil
}
