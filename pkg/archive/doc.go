// Package archive persists completed review reports so past reviews can
// be listed, retrieved and pruned. Two backends are provided: an in-memory
// store for development and tests, and a SQLite store for durable
// single-node deployments.
package archive
