package postgres

import (
	"github.com/tinoosan/ermay/internal/service/party"
	"github.com/tinoosan/ermay/internal/service/record"
	"github.com/tinoosan/ermay/internal/service/statement"
)

var (
	_ party.Repo              = (*Store)(nil)
	_ party.Writer            = (*Store)(nil)
	_ record.Repo             = (*Store)(nil)
	_ record.Writer           = (*Store)(nil)
	_ record.IdempotencyStore = (*Store)(nil)
	_ statement.Repo          = (*Store)(nil)
)
