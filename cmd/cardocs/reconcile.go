package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"cardocs/internal/reconcile"
	"cardocs/internal/repository/postgres"
	"cardocs/internal/storage"
)

var reconcileCommand = &cli.Command{
	Name:  "reconcile",
	Usage: "Find blobs without metadata and metadata without blobs",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "apply",
			Usage: "Delete orphan blobs instead of only reporting them",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Exit with status 2 when anything is left unreconciled",
		},
		&cli.DurationFlag{
			Name:  "grace",
			Usage: "Leave unreferenced blobs younger than this alone (overrides RECONCILE_GRACE)",
		},
	},
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		objStore, err := storage.NewMinIO(rt.cfg.MinIO)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}

		grace := rt.cfg.ReconcileGrace
		if c.IsSet("grace") {
			grace = c.Duration("grace")
		}
		rec := reconcile.New(objStore, postgres.NewUploadPostgres(rt.db), nil, rt.logger, reconcile.WithGrace(grace))

		var rep reconcile.Report
		if c.Bool("apply") {
			rep, err = rec.Sweep(ctx)
		} else {
			rep, err = rec.Check(ctx)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}

		if c.Bool("strict") && !rep.Clean() {
			return cli.Exit("storage and metadata disagree", 2)
		}
		return nil
	},
}
