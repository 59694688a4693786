package bundle

import (
	"github.com/smallbiznis/chargeflow/internal/bundle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bundle.service",
	fx.Provide(service.NewService),
)
