// Package storage provides audit record backends: an in-memory store for
// tests and single-process use, and a SQLite store for persistence.
//
// Use New to pick a backend from configuration.
package storage
