package httpapi

import (
	"github.com/comptaflow/comptaflow/internal/storage/memory"
	"github.com/comptaflow/comptaflow/internal/storage/postgres"
)

// Both storage backends must satisfy the full Store surface.
var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)
