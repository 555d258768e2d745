package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id                   TEXT    PRIMARY KEY,
		is_group             INTEGER NOT NULL DEFAULT 0,
		title                TEXT    NOT NULL DEFAULT '',
		includes_email       INTEGER NOT NULL DEFAULT 0,
		self_id              TEXT    NOT NULL DEFAULT '',
		ringtone_uri         TEXT    NOT NULL DEFAULT '',
		notification_enabled INTEGER NOT NULL DEFAULT 1,
		vibration_enabled    INTEGER NOT NULL DEFAULT 0,
		sub_id               INTEGER NOT NULL DEFAULT 0,
		icon_uri             TEXT    NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS participants (
		id         TEXT    PRIMARY KEY,
		full_name  TEXT    NOT NULL DEFAULT '',
		first_name TEXT    NOT NULL DEFAULT '',
		avatar_uri TEXT    NOT NULL DEFAULT '',
		is_self    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		participant_id  TEXT NOT NULL REFERENCES participants(id)  ON DELETE CASCADE,
		PRIMARY KEY (conversation_id, participant_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id              TEXT    PRIMARY KEY,
		conversation_id TEXT    NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		author_id       TEXT    NOT NULL DEFAULT '',
		text            TEXT    NOT NULL DEFAULT '',
		subject         TEXT    NOT NULL DEFAULT '',
		timestamp       INTEGER NOT NULL,
		status          TEXT    NOT NULL,
		seen            INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_unseen ON messages(seen, status)`,

	`CREATE TABLE IF NOT EXISTS parts (
		id           TEXT PRIMARY KEY,
		message_id   TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		uri          TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_parts_message ON parts(message_id)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("store: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("store: record schema version: %w", err)
	}

	return nil
}
