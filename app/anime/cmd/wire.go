//go:build wireinject
// +build wireinject

package main

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/handler"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/app"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/google/wire"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,
		provideAppOptions,

		// 2. 追踪与指标
		provideTracer,
		providePrometheus,
		provideEngineMetrics,

		// 3. 数据层
		provideDatabase,
		provideStore,

		// 4. 引擎核心
		provideEngineConfig,
		provideRarityTable,
		provideIDGenerator,
		provideEventPublisher,
		provideCore,
		provideEncounterCodec,

		// 5. 业务服务
		service.NewHuntService,
		service.NewCollectionService,
		service.NewTradeService,
		service.NewDailyService,
		service.NewLeaderboardService,
		service.NewCatalogService,

		// 6. 接口层
		wire.Struct(new(handler.Services), "*"),
		provideSentry,
		provideHandler,
		provideAuthManager,
		provideWebServer,

		// 7. 定时任务
		provideRedis,
		provideScheduler,

		// 8. 组装
		provideAppComponents,
		app.InitApp,
	))
}
