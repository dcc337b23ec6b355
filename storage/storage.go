// Package storage opens the configured storage engine and exposes it through the core repositories.
package storage

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
	"github.com/trezcool/teampoints/core/roster"
	"github.com/trezcool/teampoints/storage/database"
	inmemdb "github.com/trezcool/teampoints/storage/database/inmem"
	sqlxrepos "github.com/trezcool/teampoints/storage/database/sqlx"
)

type Storage struct {
	Roster roster.Repository
	Points points.Store

	// DB is nil for the memory engine.
	DB *sqlx.DB
}

// Open connects to the configured engine. SQL databases are migrated when migrate is true.
func Open(conf *core.Config, migrate bool) (*Storage, error) {
	if conf.Database.Engine == core.EngineMemory {
		db := inmemdb.Open()
		return &Storage{
			Roster: inmemdb.NewRosterRepository(db),
			Points: inmemdb.NewPointsStore(db),
		}, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Storage{
		Roster: sqlxrepos.NewRosterRepository(db),
		Points: sqlxrepos.NewPointsStore(db),
		DB:     db,
	}, nil
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return errors.Wrap(s.DB.Close(), "closing database")
}
