package gotpms

import (
	"context"

	internalopts "github.com/vschepin/gotpms/internal/options"
)

// AnalyzeOptions configures decoding.
type AnalyzeOptions struct {
	// ShowRaw attaches raw diagnostic fields (framed and descrambled hex,
	// unscaled pressure and temperature) to every emitted reading.
	ShowRaw bool
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) context.Context {
	return internalopts.WithShowRaw(ctx, opts.ShowRaw)
}
