package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/curriculum/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine == database.EngineMemory {
		return errors.Wrap(database.ErrNoSQLEngine, "nothing to migrate")
	}
	if err := database.SetupGoose(cli.conf.Database.Engine); err != nil {
		return err
	}

	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db, database.MigrationsDir, arguments...)
}
