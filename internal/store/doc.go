// Package store defines the persistence interfaces used by the services and
// the sentinel errors their implementations return. The concrete PostgreSQL
// implementations live in internal/platform/postgres; services depend only
// on these interfaces, so tests substitute in-memory or mocked stores.
package store
