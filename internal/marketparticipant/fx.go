package marketparticipant

import (
	"github.com/smallbiznis/chargeflow/internal/marketparticipant/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("marketparticipant.repository",
	fx.Provide(repository.NewRepository),
)
