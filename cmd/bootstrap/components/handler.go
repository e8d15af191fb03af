package components

import (
	"labbook/internal/handler"
	"labbook/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
		api.NewWaitlistHandler,
	),
	fx.Invoke(handler.NewRouter),
)
