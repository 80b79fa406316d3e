// Package database provides SQLite-backed persistence for the
// snapstream API service: media records with embedded analysis results
// and user accounts with bcrypt password hashes. A fresh database is
// seeded with the default administrator account.
package database
