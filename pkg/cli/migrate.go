package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/cli/config"
	"github.com/shopmate-ai/shopmate/pkg/repository/sqlite"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview Firestore index changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate the SQLite schema or Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			switch repoCfg.Backend() {
			case "sqlite":
				return migrateSQLite(ctx, repoCfg.SQLitePath())
			case "firestore":
				if repoCfg.ProjectID() == "" {
					return goerr.Wrap(config.ErrMissingParameter, "firestore-project-id is required",
						goerr.V(config.ParameterKey, "firestore-project-id"))
				}
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case "memory":
				logging.Default().Info("In-memory repository needs no migration")
				return nil
			default:
				return goerr.Wrap(config.ErrUnknownBackend, "invalid repository backend",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

// migrateSQLite applies pending schema versions. Opening the database runs
// the migrations.
func migrateSQLite(ctx context.Context, path string) error {
	db, err := sqlite.New(ctx, path)
	if err != nil {
		return goerr.Wrap(err, "failed to migrate sqlite database", goerr.V("path", path))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Default().Error("failed to close sqlite database", "error", err.Error())
		}
	}()

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	logging.Default().Info("SQLite schema is up to date", "path", path, "version", version)
	return nil
}

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()

	logger.Info("Migrate configuration",
		"projectID", projectID,
		"databaseID", databaseID,
		"dryRun", dryRun)

	indexConfig := getIndexConfig()

	client, err := fireconf.NewClient(ctx, projectID, databaseID)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the composite indexes the Firestore repository queries need
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "conversations",
				Indexes: []fireconf.Index{
					// ListByUser: UserID ASC, ID DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "UserID", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: "agent_runs",
				Indexes: []fireconf.Index{
					// ListByConversation: ConversationID ASC, ID ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "ConversationID", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
