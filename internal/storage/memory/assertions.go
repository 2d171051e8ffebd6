package memory

import (
	"github.com/tinoosan/ermay/internal/service/party"
	"github.com/tinoosan/ermay/internal/service/record"
	"github.com/tinoosan/ermay/internal/service/statement"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ party.Repo              = (*Store)(nil)
	_ party.Writer            = (*Store)(nil)
	_ record.Repo             = (*Store)(nil)
	_ record.Writer           = (*Store)(nil)
	_ record.IdempotencyStore = (*Store)(nil)
	_ statement.Repo          = (*Store)(nil)
)
