// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	createUser = `INSERT INTO users (
			user_id,
			username,
			key_algorithm,
			pub_key,
			enc_priv_key,
			pw_salt,
			pw_iterations,
			pw_algorithm,
			pw_hash,
			enc_sym_key,
			quota_tier
		) VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING user_id, username, key_algorithm, pub_key, enc_priv_key,
			pw_salt, pw_iterations, pw_algorithm, pw_hash, enc_sym_key,
			used_bytes, note_count, quota_tier, created_at;`

	findUserByUsername = `SELECT user_id, username, key_algorithm, pub_key, enc_priv_key,
			pw_salt, pw_iterations, pw_algorithm, pw_hash, enc_sym_key,
			used_bytes, note_count, quota_tier, created_at
		FROM users
		WHERE username = lower($1);`

	getUserSize = `SELECT used_bytes FROM users WHERE user_id = $1;`

	deleteUser = `DELETE FROM users WHERE user_id = $1;`

	// keys exclusively owned by the user: no other ownership record shares
	// the key name
	deleteExclusiveNotes = `DELETE FROM notes
		WHERE key_name IN (
			SELECT k.key_name FROM keys k
			WHERE k.user_id = $1
			AND NOT EXISTS (
				SELECT 1 FROM keys o
				WHERE o.key_name = k.key_name AND o.user_id <> $1
			)
		);`

	deleteUserKeys = `DELETE FROM keys WHERE user_id = $1;`

	recomputeUserUsage = `UPDATE users SET
			used_bytes = COALESCE((
				SELECT SUM(LENGTH(ni.data))
				FROM note_items ni
				JOIN notes n ON n.note_id = ni.note_id
				WHERE n.key_name IN (SELECT key_name FROM keys WHERE user_id = $1)
			), 0),
			note_count = COALESCE((
				SELECT COUNT(DISTINCT n.note_id)
				FROM notes n
				WHERE n.key_name IN (SELECT key_name FROM keys WHERE user_id = $1)
			), 0)
		WHERE user_id = $1;`

	createKey = `INSERT INTO keys (id, user_id, key_name, algorithm, pub_key, enc_key_material)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, key_name, algorithm, pub_key, enc_key_material, created_at;`

	deleteKey = `DELETE FROM keys WHERE user_id = $1 AND key_name = $2;`

	getNote = `SELECT note_id, key_name, created_at, updated_at
		FROM notes
		WHERE note_id = $1;`

	getNoteItems = `SELECT item_type, version, data
		FROM note_items
		WHERE note_id = $1;`

	createNote = `INSERT INTO notes (note_id, key_name) VALUES ($1, $2);`

	touchNote = `UPDATE notes SET updated_at = NOW() WHERE note_id = $1;`

	rekeyNote = `UPDATE notes SET key_name = $2, updated_at = NOW() WHERE note_id = $1;`

	deleteNoteItems = `DELETE FROM note_items WHERE note_id = $1;`

	deleteNote = `DELETE FROM notes WHERE note_id = $1;`

	insertNoteItem = `INSERT INTO note_items (note_id, item_type, version, data)
		VALUES ($1, $2, 1, $3);`

	updateNoteItem = `UPDATE note_items SET data = $1, version = version + 1
		WHERE note_id = $2 AND item_type = $3 AND version = $4;`

	selectNoteItemVersion = `SELECT version FROM note_items
		WHERE note_id = $1 AND item_type = $2;`

	deleteNoteItemByType = `DELETE FROM note_items WHERE note_id = $1 AND item_type = $2;`
)

// psql builds dynamic queries with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildGetKeysByName selects every ownership record of one key name.
func buildGetKeysByName(keyName string) (string, []any, error) {
	return psql.
		Select("id", "user_id", "key_name", "algorithm", "pub_key", "enc_key_material", "created_at").
		From("keys").
		Where(sq.Eq{"key_name": keyName}).
		OrderBy("created_at").
		ToSql()
}

// buildGetUserKeys selects every ownership record of one user.
func buildGetUserKeys(userID string) (string, []any, error) {
	return psql.
		Select("id", "user_id", "key_name", "algorithm", "pub_key", "enc_key_material", "created_at").
		From("keys").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("key_name").
		ToSql()
}

// buildGetUserKeyNames selects the distinct key names visible to one user.
func buildGetUserKeyNames(userID string) (string, []any, error) {
	return psql.
		Select("key_name").
		From("keys").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("key_name").
		ToSql()
}

// buildCountUserNotes counts the user's notes still referencing keyName.
func buildCountUserNotes(userID, keyName string) (string, []any, error) {
	return psql.
		Select("COUNT(*)").
		From("notes n").
		Join("keys k ON k.key_name = n.key_name").
		Where(sq.Eq{"k.user_id": userID, "n.key_name": keyName}).
		ToSql()
}

// buildGetNotesByKeyNames selects note rows under any of the key names.
func buildGetNotesByKeyNames(keyNames []string) (string, []any, error) {
	return psql.
		Select("note_id", "key_name", "created_at", "updated_at").
		From("notes").
		Where(sq.Eq{"key_name": keyNames}).
		OrderBy("created_at").
		ToSql()
}

// buildGetItemsByNoteIDs selects all items of the given notes in one query.
func buildGetItemsByNoteIDs(noteIDs []string) (string, []any, error) {
	return psql.
		Select("note_id", "item_type", "version", "data").
		From("note_items").
		Where(sq.Eq{"note_id": noteIDs}).
		ToSql()
}
