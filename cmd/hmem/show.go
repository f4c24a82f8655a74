package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/exportimport"
	"github.com/untoldecay/hmem/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render one memory entry as glamour-formatted Markdown",
	Long: `Show reads a single entry or node by ID and renders it through
glamour for an interactive terminal, the same Markdown-to-ANSI rendering
export_memory --pretty uses (§8, adapted from bd's own terminal viewer).`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := loadAdapterEnv()
	if err != nil {
		return err
	}

	cfg, err := config.Load(env.ProjectDir)
	if err != nil {
		return fmt.Errorf("hmem show: loading config: %w", err)
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, env.DBPath, cfg)
	if err != nil {
		return fmt.Errorf("hmem show: opening store: %w", err)
	}
	defer s.Close()

	views, err := s.Read(ctx, store.ReadOpts{ID: args[0], FollowObsolete: true, ShowObsoletePath: true, LinkDepth: 1}, env.AgentRole)
	if err != nil {
		return fmt.Errorf("hmem show: %w", err)
	}
	view := views[0]

	var md string
	if view.IsNode {
		md = fmt.Sprintf("- **%s**: %s\n", view.Node.ID, view.Node.Content)
	} else {
		md, err = exportimport.RenderEntryMarkdown(ctx, s, view.Entry)
		if err != nil {
			return fmt.Errorf("hmem show: rendering %s: %w", args[0], err)
		}
	}

	for _, prior := range view.ObsoletePath {
		md = fmt.Sprintf("_superseded: %s — %s_\n\n%s", prior.ID, prior.Title, md)
	}

	out := cmd.OutOrStdout()
	if !colorEnabled() {
		fmt.Fprint(out, md)
		return nil
	}
	rendered, err := renderPretty(md)
	if err != nil {
		return fmt.Errorf("hmem show: rendering pretty output: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}
