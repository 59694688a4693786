package outcome

import "go.uber.org/fx"

var Module = fx.Module("outcome.emitter",
	fx.Provide(NewOutboxEmitter),
)
