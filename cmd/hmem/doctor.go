package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run integrity and health checks against the memory store",
	Long: `Doctor runs the store's corruption guard on demand and reports
schema version, row counts per table, and orphaned-node checks, without
requiring a full read (§8, adapted from bd's own doctor subcommand).`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	env, err := loadAdapterEnv()
	if err != nil {
		return err
	}

	cfg, err := config.Load(env.ProjectDir)
	if err != nil {
		return fmt.Errorf("hmem doctor: loading config: %w", err)
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, env.DBPath, cfg)
	if err != nil {
		return fmt.Errorf("hmem doctor: opening store: %w", err)
	}
	defer s.Close()

	report, err := s.Doctor(ctx)
	if err != nil {
		return fmt.Errorf("hmem doctor: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "schema_version:  %d\n", report.SchemaVersion)
	fmt.Fprintf(out, "memories:        %d\n", report.MemoryCount)
	fmt.Fprintf(out, "memory_nodes:    %d\n", report.NodeCount)
	fmt.Fprintf(out, "orphaned_nodes:  %d\n", report.OrphanedNodes)
	if report.IntegrityError != "" {
		fmt.Fprintf(out, "integrity_check: %s\n", paintStatus(fmt.Sprintf("FAILED (%s)", report.IntegrityError), false))
	} else {
		fmt.Fprintf(out, "integrity_check: %s\n", paintStatus("ok", true))
	}
	return nil
}
