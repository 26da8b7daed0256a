package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/dividend_radar/app/display/internal/data"
	"github.com/iWorld-y/dividend_radar/app/display/internal/service"
	"github.com/iWorld-y/dividend_radar/app/display/internal/usecase"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewRegistry,

	// Engine providers
	NewRadarConfig,
	NewWorkflow,
	NewRunner,
	NewStatusFetcher,

	// Data providers
	data.NewData,
	data.NewRunRepo,

	// UseCase providers
	usecase.NewAdvisorUseCase,

	// Service providers
	service.NewAdvisorService,
)
