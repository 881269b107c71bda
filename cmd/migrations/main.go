package main

import (
	"fmt"
	"os"

	"github.com/maktabaapp/maktaba-sync/pkg/config"
	"github.com/maktabaapp/maktaba-sync/pkg/database"
	"github.com/maktabaapp/maktaba-sync/pkg/migrations"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

// The agent brings the schema up to date on startup; this CLI exists for
// inspecting and rolling back the agent database out of band.
func main() {
	log := logger.New()
	if err := run(); err != nil {
		log.Err(err).Fatal("migrations error")
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	app := &cli.App{
		Name:  "migrations",
		Usage: "manage the agent database schema",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					group, err := migrations.BringUpToDate(c.Context, db)
					if err != nil {
						return err
					}
					if group.ID == 0 {
						fmt.Println("database is up to date")
						return nil
					}
					fmt.Printf("migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					group, err := newMigrator(db).Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.ID == 0 {
						fmt.Println("nothing to roll back")
						return nil
					}
					fmt.Printf("rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "show applied and pending migrations",
				Action: func(c *cli.Context) error {
					ms, err := newMigrator(db).MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("applied: %s\n", ms.Applied())
					fmt.Printf("pending: %s\n", ms.Unapplied())
					return nil
				},
			},
		},
	}

	return app.Run(os.Args)
}

func newMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations.Migrations)
}
