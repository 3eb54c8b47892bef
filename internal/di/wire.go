//go:build wireinject
// +build wireinject

package di

import (
	"BarScan/pkg/config"
	"BarScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCalendar,

		// Data source and fetch pool
		ProvideBarSource,
		ProvideFetcher,

		// Sinks
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Pipeline and HTTP surface
		ProvideScanner,
		ProvideScanHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
