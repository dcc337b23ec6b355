package main

import (
	"errors"

	"github.com/trezcool/teampoints/storage/database"
)

var gooseRunFunc = database.Run // mockable

var errNoSQLDatabase = errors.New("migrations need a SQL database engine")

func (cli *commandLine) migrate(args []string) error {
	if cli.store.DB == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(args[0], cli.store.DB, args[1:]...)
}
