package ingest

import (
	"context"
	"fmt"

	"go.uber.org/fx"
)

var Module = fx.Module("ingest",
	fx.Provide(NewLocker),
	fx.Provide(NewWorker),
	fx.Invoke(StartWorker),
)

func StartWorker(lc fx.Lifecycle, w *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				w.RunForever(ctx)
			}()
			return nil
		},
		// Stop waits for in-flight bundles to finish their walk.
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return fmt.Errorf("drain ingest worker: %w", stopCtx.Err())
			}
		},
	})
}
