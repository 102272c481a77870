package auth

import "go.uber.org/fx"

var Module = fx.Module("recordstore.auth",
	fx.Provide(ProvideIssuer),
	fx.Provide(NewService),
)
