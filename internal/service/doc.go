// Package service enforces the project and task business rules and owns
// the transaction boundary of every operation.
//
// Each exported operation validates its input, then runs all reads and
// writes inside a single store.RunInTransaction call using tx-bound stores
// (WithTx). Validation failures return before any write. Store failures
// roll the transaction back and surface as *domain.RepositoryError.
// Events are published only after a successful commit.
//
// Errors returned to callers are always one of *domain.ValidationError,
// *domain.NotFoundError or *domain.RepositoryError, so transports can map
// them with domain.CodeOf without inspecting messages.
package service
