// Package modkit provides module wiring and core deps
package modkit

import (
	"scanhub/internal/modkit/repokit"
	"scanhub/internal/platform/config"
	"scanhub/internal/platform/logger"
	"scanhub/internal/platform/store"
)

// Deps holds the core dependencies handed to every module
// wiring only, no behavior lives here
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
