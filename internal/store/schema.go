package store

// dialect carries the per-driver DDL. DML is written once with ? placeholders,
// which both drivers accept.
type dialect struct {
	name   string
	schema []string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS repos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS branches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			repo_id INTEGER NOT NULL REFERENCES repos(id),
			UNIQUE(name, repo_id)
		)`,
		`CREATE TABLE IF NOT EXISTS contributors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			login TEXT NOT NULL UNIQUE,
			name TEXT,
			email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS commits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sha TEXT NOT NULL UNIQUE,
			author_id INTEGER REFERENCES contributors(id),
			repo_id INTEGER NOT NULL REFERENCES repos(id),
			ts TEXT NOT NULL,
			branch_id INTEGER REFERENCES branches(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commits_repo_ts ON commits(repo_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_commits_author ON commits(author_id)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			repo_id INTEGER NOT NULL REFERENCES repos(id),
			name TEXT NOT NULL,
			tarball INTEGER NOT NULL DEFAULT 0,
			commit_id INTEGER REFERENCES commits(id),
			UNIQUE(repo_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY,
			repo_id INTEGER NOT NULL REFERENCES repos(id),
			number INTEGER NOT NULL,
			is_issue INTEGER NOT NULL,
			state TEXT NOT NULL,
			author_id INTEGER REFERENCES contributors(id),
			title TEXT NOT NULL,
			ts_created TEXT NOT NULL,
			ts_updated TEXT NOT NULL,
			ts_closed TEXT,
			comment_cnt INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_repo ON issues(repo_id, number)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY,
			repo_id INTEGER NOT NULL REFERENCES repos(id),
			issue_id INTEGER NOT NULL REFERENCES issues(id),
			author_id INTEGER REFERENCES contributors(id),
			ts_created TEXT NOT NULL
		)`,
	},
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so secondary keys are declared
// inline. Unique text columns are VARCHAR to stay within the index limit.
var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS repos (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS branches (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			repo_id BIGINT NOT NULL,
			UNIQUE KEY uq_branches_name_repo (name, repo_id),
			FOREIGN KEY (repo_id) REFERENCES repos(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS contributors (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			login VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255),
			email VARCHAR(255)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS commits (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			sha VARCHAR(64) NOT NULL UNIQUE,
			author_id BIGINT NULL,
			repo_id BIGINT NOT NULL,
			ts VARCHAR(32) NOT NULL,
			branch_id BIGINT NULL,
			KEY idx_commits_repo_ts (repo_id, ts),
			KEY idx_commits_author (author_id),
			FOREIGN KEY (author_id) REFERENCES contributors(id),
			FOREIGN KEY (repo_id) REFERENCES repos(id),
			FOREIGN KEY (branch_id) REFERENCES branches(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS tags (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			repo_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			tarball BOOLEAN NOT NULL DEFAULT FALSE,
			commit_id BIGINT NULL,
			UNIQUE KEY uq_tags_repo_name (repo_id, name),
			FOREIGN KEY (repo_id) REFERENCES repos(id),
			FOREIGN KEY (commit_id) REFERENCES commits(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS issues (
			id BIGINT PRIMARY KEY,
			repo_id BIGINT NOT NULL,
			number INT NOT NULL,
			is_issue BOOLEAN NOT NULL,
			state VARCHAR(16) NOT NULL,
			author_id BIGINT NULL,
			title TEXT NOT NULL,
			ts_created VARCHAR(32) NOT NULL,
			ts_updated VARCHAR(32) NOT NULL,
			ts_closed VARCHAR(32) NULL,
			comment_cnt INT NOT NULL DEFAULT 0,
			KEY idx_issues_repo (repo_id, number),
			FOREIGN KEY (repo_id) REFERENCES repos(id),
			FOREIGN KEY (author_id) REFERENCES contributors(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGINT PRIMARY KEY,
			repo_id BIGINT NOT NULL,
			issue_id BIGINT NOT NULL,
			author_id BIGINT NULL,
			ts_created VARCHAR(32) NOT NULL,
			FOREIGN KEY (repo_id) REFERENCES repos(id),
			FOREIGN KEY (issue_id) REFERENCES issues(id),
			FOREIGN KEY (author_id) REFERENCES contributors(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}
