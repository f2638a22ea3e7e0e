package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/config"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/observability"
	"github.com/ticketledger/ticket-ledger/internal/scenario"
)

func main() {
	flags := pflag.NewFlagSet("ledger-sim", pflag.ContinueOnError)
	scenarios := flags.StringSliceP("scenario", "s", nil, "scenario YAML file, repeatable")
	genesisFile := flags.String("genesis", "", "genesis YAML file, defaults to the devnet accounts")
	logLevel := flags.String("log-level", "warn", "log level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}
	if len(*scenarios) == 0 {
		*scenarios = flags.Args()
	}
	if len(*scenarios) == 0 {
		log.Fatal("no scenario given")
	}

	logger, err := observability.NewLogger(config.LoggerConfig{Level: *logLevel})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	genesis := ledger.DevnetGenesis()
	if *genesisFile != "" {
		genesis, err = ledger.LoadGenesis(*genesisFile)
		if err != nil {
			logger.Fatal("failed to load genesis", zap.Error(err))
		}
	}

	runner := scenario.NewRunner(genesis, logger)
	failed := 0
	for _, path := range *scenarios {
		sc, err := scenario.Load(path)
		if err != nil {
			logger.Fatal("failed to load scenario", zap.String("path", path), zap.Error(err))
		}
		report, err := runner.Run(context.Background(), sc)
		if report != nil {
			fmt.Printf("== %s\n", report.Scenario)
			for _, o := range report.Outcomes {
				fmt.Println(o.String())
			}
			failed += report.Failures()
		}
		if err != nil {
			logger.Error("scenario aborted", zap.String("path", path), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d failure(s)\n", failed)
		os.Exit(1)
	}
}
