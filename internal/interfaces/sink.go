package interfaces

import (
	"context"

	"robostock/internal/types"
)

// ResultSink persists a finished screen run
type ResultSink interface {
	Name() string
	Save(ctx context.Context, run *types.ScreenRun) error
	Close(ctx context.Context) error
}
