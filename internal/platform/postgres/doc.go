// Package postgres provides the PostgreSQL dialect, connection setup,
// error mapping and embedded schema migrations used by the SQL stores in
// internal/platform/sqlstore.
package postgres
