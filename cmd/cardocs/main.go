package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "cardocs",
		Usage: "Track vehicle documents, their expiry dates and uploaded copies",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			reconcileCommand,
			statusCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
