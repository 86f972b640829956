package memory

import (
	"github.com/comptaflow/comptaflow/internal/chart"
	"github.com/comptaflow/comptaflow/internal/service/journal"
	"github.com/comptaflow/comptaflow/internal/service/recon"
	"github.com/comptaflow/comptaflow/internal/service/report"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ chart.Repo     = (*Store)(nil)
	_ chart.Writer   = (*Store)(nil)
	_ journal.Repo   = (*Store)(nil)
	_ journal.Writer = (*Store)(nil)
	_ report.Repo    = (*Store)(nil)
	_ recon.Repo     = (*Store)(nil)
	_ recon.Writer   = (*Store)(nil)
)
