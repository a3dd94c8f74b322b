package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"cardocs/internal/repository/postgres"
	"cardocs/internal/service"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Print every document with its expiry status",
	Action: func(c *cli.Context) error {
		ctx := context.Background()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		docs, err := service.NewDocumentService(postgres.NewDocumentPostgres(rt.db)).List(ctx)
		if err != nil {
			return err
		}

		cls := rt.classifier()
		w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tTYPE\tEXPIRES\tSTATUS\tDAYS")
		for _, d := range docs {
			res, _ := cls.ClassifyDocument(d)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", d.Title, d.Type, d.Date, res.Status, res.RemainingDays)
		}
		return w.Flush()
	},
}
