// Package events lets the services announce committed state changes
// (project and task lifecycle, auto-close runs) without knowing who
// listens. The metrics package subscribes to count them.
package events
