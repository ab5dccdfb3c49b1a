// Package jobs runs periodic background work. The Scheduler drives the
// overdue-task auto-close batch on a fixed interval and serves on-demand
// triggers without ever running two batches at once.
package jobs
