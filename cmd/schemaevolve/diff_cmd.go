package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/schemaengine/internal/config"
	"github.com/arkilian/schemaengine/internal/differ"
	"github.com/arkilian/schemaengine/internal/engine"
	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

func newDiffCmd() *cobra.Command {
	var configPath, databasePath, schemaPath string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print the changes needed to move a database to a target schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), configPath, databasePath, schemaPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML or JSON config file")
	cmd.Flags().StringVar(&databasePath, "database", "", "path to the SQLite database (overrides config)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the target schema file (overrides config)")

	return cmd
}

func runDiff(ctx context.Context, configPath, databasePath, schemaPath string) error {
	cfg, err := resolveConfig(configPath, databasePath, schemaPath)
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

	txn, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	current, err := engine.SchemaFromGroup(ctx, txn)
	if err != nil {
		return err
	}

	changes := differ.Diff(current, target, differ.ModeDefault)
	printChanges(changes)
	return nil
}

func printChanges(changes []types.SchemaChange) {
	if len(changes) == 0 {
		fmt.Println("no changes")
		return
	}
	for _, c := range changes {
		explanation := types.ExplainChange(c)
		if explanation == "" {
			explanation = fmt.Sprintf("%T", c)
		}
		fmt.Println(explanation)
	}
}

// resolveConfig loads configPath (if given), then overlays environment
// variables and any flag overrides, in that precedence order: file,
// then env, then explicit flags.
func resolveConfig(configPath, databasePath, schemaPath string) (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}
	if schemaPath != "" {
		cfg.SchemaPath = schemaPath
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path is required (--database, config file, or SCHEMAENGINE_DATABASE_PATH)")
	}
	if cfg.SchemaPath == "" {
		return nil, fmt.Errorf("schema path is required (--schema, config file, or SCHEMAENGINE_SCHEMA_PATH)")
	}
	return cfg, nil
}
