package components

import (
	"labbook/internal/infra/policy"
	"labbook/internal/infra/uow"
	"labbook/internal/usecase/shared"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		uow.NewPostgresUoW,
		func(u shared.UnitOfWork) shared.StoreReads { return u.Reads() },
		fx.Annotate(
			policy.NewPostgresAccessPolicy,
			fx.As(new(shared.AccessPolicy)),
		),
	),
)
