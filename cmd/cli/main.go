package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/statuspage/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Status  commands.StatusCmd  `cmd:"" help:"Show an organization's status page"`
		Metrics commands.MetricsCmd `cmd:"" help:"Show uptime and latency for a service"`
		Sync    commands.SyncCmd    `cmd:"" help:"Trigger or inspect the Prometheus target sync"`
		Token   commands.TokenCmd   `cmd:"" help:"Generate a JWT token"`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("statuspage-cli"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
