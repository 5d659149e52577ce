package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"finance-link-server/src/client"
	"finance-link-server/src/export"
	"finance-link-server/src/finance"
	"finance-link-server/src/link"
	"finance-link-server/src/logger"

	"github.com/GiGurra/boa/pkg/boa"
)

type Params struct {
	Server      string `descr:"Base URL of the finance-link API server" default:"http://localhost:8000"`
	Institution string `descr:"Sandbox institution to link" default:"ins_109508"`
	Export      string `descr:"Also write the dashboard to this xlsx file" optional:"true"`
	LogLevel    string `descr:"Log level" alts:"debug,info,warn,error" default:"warn"`
}

func main() {
	boa.NewCmdT[Params]("finance-cli").
		WithShort("Link a sandbox institution and print its accounts, transactions and spending summary").
		WithLong("Drives the link token / public token / access token handshake against a running finance-link server, using the sandbox in place of the hosted widget, then loads and prints the dashboard.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	log := logger.New(params.LogLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	api := client.New(params.Server, nil)
	exchange := link.NewExchange(api, api.SandboxWidget(params.Institution), log)

	if err := exchange.Run(ctx); err != nil {
		return fmt.Errorf("link handshake failed in phase %s: %w", exchange.Phase(), err)
	}
	fmt.Printf("Linked item %s\n\n", exchange.ItemID())

	loader := finance.NewLoader(
		finance.NewAccountDirectory(api, log),
		finance.NewTransactionIngest(api, log),
		finance.NewSummaryChart(api, log),
		log,
	)
	dashboard, err := loader.Load(ctx, exchange)
	if err != nil {
		return fmt.Errorf("loading dashboard: %w", err)
	}

	printDashboard(os.Stdout, dashboard)

	if params.Export != "" {
		if err := export.WriteWorkbook(params.Export, dashboard); err != nil {
			return fmt.Errorf("exporting dashboard: %w", err)
		}
		fmt.Printf("\nWrote %s\n", params.Export)
	}
	return nil
}
