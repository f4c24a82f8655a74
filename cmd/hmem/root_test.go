package main

import (
	"testing"

	"github.com/untoldecay/hmem/internal/types"
)

func TestLoadAdapterEnvDefaultsToWorkerRole(t *testing.T) {
	t.Setenv("HMEM_PROJECT_DIR", t.TempDir())
	t.Setenv("HMEM_AGENT_ROLE", "")
	t.Setenv("HMEM_AGENT_ID", "")
	t.Setenv("HMEM_AUDIT_STATE_PATH", "")
	flagProjectDir, flagAgentID, flagAgentRole, flagAuditStatePath = "", "", "", ""

	env, err := loadAdapterEnv()
	if err != nil {
		t.Fatalf("loadAdapterEnv() error = %v", err)
	}
	if env.AgentRole != types.RoleWorker {
		t.Errorf("AgentRole = %q, want worker", env.AgentRole)
	}
}

func TestLoadAdapterEnvRejectsInvalidRole(t *testing.T) {
	t.Setenv("HMEM_PROJECT_DIR", t.TempDir())
	t.Setenv("HMEM_AGENT_ROLE", "supreme-leader")
	flagProjectDir, flagAgentID, flagAgentRole, flagAuditStatePath = "", "", "", ""

	if _, err := loadAdapterEnv(); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}
