package components

import (
	"go.uber.org/fx"

	repo_impl "amenpay/internal/infra/repository"
	"amenpay/internal/usecase"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(usecase.UserRepository)),
		),
		fx.Annotate(
			repo_impl.NewTransactionRepository,
			fx.As(new(usecase.TransactionRepository)),
		),
		fx.Annotate(
			repo_impl.NewNotificationRepository,
			fx.As(new(usecase.NotificationRepository)),
		),
	),
)
