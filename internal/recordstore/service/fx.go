package service

import "go.uber.org/fx"

var Module = fx.Module("recordstore.service",
	fx.Provide(NewService),
)
