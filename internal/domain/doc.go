// Package domain contains the core entities of the todo system: projects,
// tasks and their closed set of statuses, together with the typed errors
// every layer returns. It is independent of any storage or transport.
package domain
