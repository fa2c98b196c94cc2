// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the store package.
//
// All stores accept a store.DBTX, so they work with either a *sql.DB or a
// *sql.Tx. The WithTx methods return a store bound to a transaction for
// operations that must be atomic across stores. Database errors are mapped
// to the store package's sentinel errors through MapError so callers never
// depend on driver-specific error types.
package postgres
