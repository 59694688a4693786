package charge

import (
	"github.com/smallbiznis/chargeflow/internal/charge/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("charge.repository",
	fx.Provide(repository.NewStore),
)
