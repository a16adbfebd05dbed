//go:build wireinject
// +build wireinject

package di

import (
	"cybermeme-backend/internal/config"
	"cybermeme-backend/internal/handlers"
	"cybermeme-backend/internal/interfaces/websocket"
	"cybermeme-backend/internal/leaderboard"
	"cybermeme-backend/internal/service/caption"
	"cybermeme-backend/internal/service/market"

	"github.com/google/wire"
)

// InfrastructureProviders provides logging, metrics and the record store.
var InfrastructureProviders = wire.NewSet(
	provideAtomicLevel,
	provideLogger,
	provideMetrics,
	provideStore,
)

// DomainProviders provides the marketplace collaborators and service.
var DomainProviders = wire.NewSet(
	provideDirectory,
	provideCaptionGenerator,
	leaderboard.NewCache,
	market.NewService,
	wire.Bind(new(market.CaptionGenerator), new(*caption.Generator)),
	wire.Bind(new(market.Notifier), new(*websocket.Broadcaster)),
)

// InterfaceProviders provides the realtime hub and the HTTP surface.
var InterfaceProviders = wire.NewSet(
	provideHub,
	websocket.NewBroadcaster,
	provideWebSocketServer,
	handlers.NewMarketHandler,
	wire.Bind(new(handlers.MarketService), new(*market.Service)),
	provideRouter,
)

// InitializeContainer wires the application from a loaded configuration.
// The returned cleanup stops the hub and releases the store and clients.
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(
		InfrastructureProviders,
		DomainProviders,
		InterfaceProviders,
		provideContainer,
	)
	return nil, nil, nil
}
