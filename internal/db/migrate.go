package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations is the ordered list of schema statements. Statements are
// written to be safe to re-run (CREATE ... IF NOT EXISTS); ALTER TABLE
// additions rely on the duplicate-column tolerance in Migrate.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id                TEXT PRIMARY KEY,
		resource_type     TEXT NOT NULL
		                  CHECK(resource_type IN ('department','machine','employee')),
		erp_id            INTEGER NOT NULL,
		name              TEXT NOT NULL,
		capacity          INTEGER NOT NULL DEFAULT 480,
		department_erp_id INTEGER,
		level             TEXT NOT NULL DEFAULT '',
		active            INTEGER NOT NULL DEFAULT 1,
		synced_at         TEXT NOT NULL,
		UNIQUE(resource_type, erp_id)
	)`,

	`CREATE TABLE IF NOT EXISTS todos (
		id                     TEXT PRIMARY KEY,
		parent_id              TEXT REFERENCES todos(id) ON DELETE CASCADE,
		todo_type              TEXT NOT NULL
		                       CHECK(todo_type IN ('container_order','container_article',
		                             'operation','eigene','task','project')),
		erp_order_id           INTEGER,
		erp_order_article_id   INTEGER,
		erp_bom_detail_id      INTEGER,
		erp_workplan_detail_id INTEGER,
		title                  TEXT NOT NULL,
		description            TEXT NOT NULL DEFAULT '',
		quantity               REAL NOT NULL DEFAULT 0,
		setup_minutes          INTEGER NOT NULL DEFAULT 0,
		run_minutes            INTEGER NOT NULL DEFAULT 0,
		is_duration_manual     INTEGER NOT NULL DEFAULT 0,
		total_duration_minutes INTEGER NOT NULL DEFAULT 0,
		planned_start          TEXT,
		planned_end            TEXT,
		actual_start           TEXT,
		actual_end             TEXT,
		status                 TEXT NOT NULL DEFAULT 'new'
		                       CHECK(status IN ('new','planned','in_progress','completed','blocked')),
		blocked_reason         TEXT NOT NULL DEFAULT '',
		priority               INTEGER NOT NULL DEFAULT 0,
		delivery_date          TEXT,
		department_id          TEXT REFERENCES resources(id) ON DELETE SET NULL,
		machine_id             TEXT REFERENCES resources(id) ON DELETE SET NULL,
		employee_id            TEXT REFERENCES resources(id) ON DELETE SET NULL,
		created_by_id          TEXT REFERENCES resources(id) ON DELETE SET NULL,
		version                INTEGER NOT NULL DEFAULT 1,
		progress               REAL NOT NULL DEFAULT 0 CHECK(progress >= 0 AND progress <= 1),
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS todo_segments (
		id            TEXT PRIMARY KEY,
		todo_id       TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		segment_index INTEGER NOT NULL,
		start_at      TEXT NOT NULL,
		end_at        TEXT NOT NULL,
		machine_id    TEXT REFERENCES resources(id) ON DELETE SET NULL,
		employee_id   TEXT REFERENCES resources(id) ON DELETE SET NULL,
		UNIQUE(todo_id, segment_index)
	)`,

	`CREATE TABLE IF NOT EXISTS todo_dependencies (
		id              TEXT PRIMARY KEY,
		predecessor_id  TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		successor_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		dependency_type TEXT NOT NULL DEFAULT 'finish_to_start'
		                CHECK(dependency_type IN ('finish_to_start','start_to_start','finish_to_finish')),
		lag_minutes     INTEGER NOT NULL DEFAULT 0,
		UNIQUE(predecessor_id, successor_id)
	)`,

	`CREATE TABLE IF NOT EXISTS conflicts (
		id              TEXT PRIMARY KEY,
		conflict_type   TEXT NOT NULL
		                CHECK(conflict_type IN ('resource_overlap','calendar','dependency',
		                      'delivery_date','qualification')),
		todo_id         TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
		related_todo_id TEXT REFERENCES todos(id) ON DELETE CASCADE,
		description     TEXT NOT NULL DEFAULT '',
		severity        TEXT NOT NULL DEFAULT 'warning'
		                CHECK(severity IN ('warning','error')),
		resolved        INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS import_jobs (
		id             TEXT PRIMARY KEY,
		file_name      TEXT NOT NULL,
		state          TEXT NOT NULL DEFAULT 'pending'
		               CHECK(state IN ('pending','running','completed','failed')),
		articles_total INTEGER NOT NULL DEFAULT 0,
		articles_done  INTEGER NOT NULL DEFAULT 0,
		error          TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		started_at     TEXT,
		finished_at    TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_todos_parent ON todos(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_erp_order ON todos(erp_order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_machine ON todos(machine_id)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_employee ON todos(employee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_segments_todo ON todo_segments(todo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deps_predecessor ON todo_dependencies(predecessor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deps_successor ON todo_dependencies(successor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_conflicts_todo ON conflicts(todo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_conflicts_related ON conflicts(related_todo_id)`,
	`CREATE INDEX IF NOT EXISTS idx_conflicts_resolved ON conflicts(resolved)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
