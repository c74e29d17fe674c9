package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/schemaengine/internal/config"
	"github.com/arkilian/schemaengine/internal/differ"
	"github.com/arkilian/schemaengine/internal/engine"
	"github.com/arkilian/schemaengine/internal/metadata"
	"github.com/arkilian/schemaengine/internal/store"
)

func newApplyCmd() *cobra.Command {
	var (
		configPath           string
		databasePath         string
		schemaPath           string
		modeFlag             string
		targetVersion        uint64
		handleBacklinksAuto  bool
		allowVersionDecrease bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a target schema to a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), applyArgs{
				configPath:           configPath,
				databasePath:         databasePath,
				schemaPath:           schemaPath,
				mode:                 modeFlag,
				targetVersion:        targetVersion,
				handleBacklinksAuto:  handleBacklinksAuto,
				allowVersionDecrease: allowVersionDecrease,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	cmd.Flags().StringVar(&databasePath, "database", "", "path to the SQLite database (overrides config)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the target schema file (overrides config)")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "engine mode (overrides config)")
	cmd.Flags().Uint64Var(&targetVersion, "target-version", 0, "target schema version (overrides config)")
	cmd.Flags().BoolVar(&handleBacklinksAuto, "handle-backlinks-automatically", false, "automatically clear stale backlinks on ChangeTableType")
	cmd.Flags().BoolVar(&allowVersionDecrease, "allow-version-decrease", false, "stamp the schema version even if it decreases")

	return cmd
}

type applyArgs struct {
	configPath           string
	databasePath         string
	schemaPath           string
	mode                 string
	targetVersion        uint64
	handleBacklinksAuto  bool
	allowVersionDecrease bool
}

func runApply(ctx context.Context, args applyArgs) error {
	cfg, err := resolveConfig(args.configPath, args.databasePath, args.schemaPath)
	if err != nil {
		return err
	}
	if args.mode != "" {
		cfg.Mode = args.mode
	}
	if args.targetVersion != 0 {
		cfg.TargetSchemaVersion = args.targetVersion
	}
	if args.handleBacklinksAuto {
		cfg.HandleBacklinksAutomatically = true
	}

	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	archiver, err := config.BuildArchiver(ctx, cfg.Archive)
	if err != nil {
		return err
	}

	target, err := config.LoadSchemaFile(cfg.SchemaPath)
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	history, err := metadata.NewManager(db.SQL())
	if err != nil {
		return err
	}

	txn, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	currentVersion, err := engine.GetSchemaVersion(ctx, txn)
	if err != nil {
		txn.Rollback()
		return err
	}
	current, err := engine.SchemaFromGroup(ctx, txn)
	if err != nil {
		txn.Rollback()
		return err
	}
	changes := differ.Diff(current, target, differ.ModeDefault)

	opts := engine.Options{
		SchemaVersion:                     currentVersion,
		TargetSchemaVersion:               cfg.TargetSchemaVersion,
		Mode:                              mode,
		Changes:                           changes,
		HandleBacklinksAutomatically:      cfg.HandleBacklinksAutomatically,
		SetSchemaVersionOnVersionDecrease: args.allowVersionDecrease,
		Archiver:                          archiver,
	}

	if err := engine.ApplySchemaChanges(ctx, txn, &target, opts); err != nil {
		txn.Rollback()
		if errors.Is(err, engine.ErrResetRequired) {
			return fmt.Errorf("apply: %w (the database file must be deleted and recreated from the target schema)", err)
		}
		return fmt.Errorf("apply: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return err
	}

	if err := history.RegisterVersion(ctx, cfg.TargetSchemaVersion, target); err != nil {
		return fmt.Errorf("apply: record version history: %w", err)
	}

	fmt.Printf("applied %d change(s), schema version now %d\n", len(changes), cfg.TargetSchemaVersion)
	return nil
}
