package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
	logsvc "github.com/trezcool/teampoints/services/logger"
	"github.com/trezcool/teampoints/storage"
	"github.com/trezcool/teampoints/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	store, err := storage.Open(conf, false /* migrate */)
	if err != nil {
		logger.Fatal("opening storage", err)
	}

	// start CLI
	cli := commandLine{
		conf:     conf,
		store:    store,
		points:   points.NewService(store.Points, roster.NewService(store.Roster), nil),
		validate: newValidator(),
		out:      os.Stdout,
	}
	err = cli.run(context.Background(), os.Args[1:])

	if cerr := store.Close(); cerr != nil {
		logger.Error("closing storage", cerr)
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
