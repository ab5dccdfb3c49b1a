// Package store defines the data access contract for projects and tasks.
// The interfaces keep the services independent of the SQL dialect in use;
// implementations live under internal/platform.
//
// Each service call owns one transaction, started with RunInTransaction
// and threaded to the stores through WithTx.
package store
