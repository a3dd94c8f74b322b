package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"cardocs/internal/database/migration"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Create the documents and uploaded_documents tables if missing",
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		return migration.EnsureMigrated(ctx, rt.db, rt.logger, rt.cfg.Database.Host)
	},
}
