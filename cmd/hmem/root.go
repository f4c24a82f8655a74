package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/untoldecay/hmem/internal/audit"
	"github.com/untoldecay/hmem/internal/types"
)

// Version is set at build time via -ldflags, following bd's own rpc
// ServerVersion convention.
var Version = "dev"

// adapterEnv bundles the environment the adapter must be handed (§6):
// project directory, agent identifier, agent role, and audit-state path.
type adapterEnv struct {
	ProjectDir     string
	AgentID        string
	AgentRole      types.Role
	AuditStatePath string
	DBPath         string
}

func loadAdapterEnv() (adapterEnv, error) {
	projectDir := firstNonEmpty(flagProjectDir, os.Getenv("HMEM_PROJECT_DIR"))
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return adapterEnv{}, fmt.Errorf("hmem: resolving project directory: %w", err)
		}
		projectDir = cwd
	}

	role := types.Role(firstNonEmpty(flagAgentRole, os.Getenv("HMEM_AGENT_ROLE"), string(types.RoleWorker)))
	if !role.IsValid() {
		return adapterEnv{}, fmt.Errorf("hmem: invalid agent role %q", role)
	}

	agentID := firstNonEmpty(flagAgentID, os.Getenv("HMEM_AGENT_ID"))
	dbPath := filepath.Join(projectDir, ".hmem", "memory.db")
	auditPath := audit.ResolvePath(firstNonEmpty(flagAuditStatePath, os.Getenv("HMEM_AUDIT_STATE_PATH")), dbPath)

	return adapterEnv{
		ProjectDir:     projectDir,
		AgentID:        agentID,
		AgentRole:      role,
		AuditStatePath: auditPath,
		DBPath:         dbPath,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	flagProjectDir     string
	flagAgentID        string
	flagAgentRole      string
	flagAuditStatePath string
)

var rootCmd = &cobra.Command{
	Use:     "hmem",
	Short:   "hmem is a hierarchical memory store for AI agents",
	Version: Version,
	Long: `hmem persists hierarchical memory entries for AI agents, gated by
role, and exposes them over an MCP stdio adapter (hmem serve) or a handful
of one-shot CLI commands for scripting and diagnostics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProjectDir, "project-dir", "", "project directory (default: $HMEM_PROJECT_DIR or cwd)")
	rootCmd.PersistentFlags().StringVar(&flagAgentID, "agent-id", "", "calling agent's identifier (default: $HMEM_AGENT_ID)")
	rootCmd.PersistentFlags().StringVar(&flagAgentRole, "agent-role", "", "calling agent's role: worker|al|pl|ceo (default: $HMEM_AGENT_ROLE or worker)")
	rootCmd.PersistentFlags().StringVar(&flagAuditStatePath, "audit-state-path", "", "audit sidecar path (default: $HMEM_AUDIT_STATE_PATH or sibling of the data file)")
}

// Execute runs the root command; main's sole job is to call this and set
// the process exit code.
func Execute() error {
	return rootCmd.Execute()
}
