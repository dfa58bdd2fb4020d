// Package sqldocs embeds the SQL schema scripts kept in the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the SQLite schema.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the Postgres schema.
//
//go:embed postgres.sql
var Postgres string
