package v1

import (
	"context"

	"github.com/tinoosan/ermay/internal/service/party"
	"github.com/tinoosan/ermay/internal/service/record"
	"github.com/tinoosan/ermay/internal/service/statement"
)

// Store composes the read and write operations the API needs. It is
// satisfied by both the in-memory and the Postgres store.
type Store interface {
	party.Repo
	party.Writer
	record.Repo
	record.Writer
	record.IdempotencyStore
	statement.Repo
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
