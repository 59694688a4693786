package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeflow/internal/bundle"
	"github.com/smallbiznis/chargeflow/internal/charge"
	"github.com/smallbiznis/chargeflow/internal/clock"
	"github.com/smallbiznis/chargeflow/internal/config"
	"github.com/smallbiznis/chargeflow/internal/ingest"
	"github.com/smallbiznis/chargeflow/internal/marketparticipant"
	"github.com/smallbiznis/chargeflow/internal/migration"
	"github.com/smallbiznis/chargeflow/internal/observability"
	"github.com/smallbiznis/chargeflow/internal/outcome"
	"github.com/smallbiznis/chargeflow/internal/server"
	"github.com/smallbiznis/chargeflow/internal/validation"
	"github.com/smallbiznis/chargeflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,

		// Functional Domains
		charge.Module,
		marketparticipant.Module,
		validation.Module,
		outcome.Module,
		bundle.Module,
		ingest.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.Ingest.NodeID)
}
