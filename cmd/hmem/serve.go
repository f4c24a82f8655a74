package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/untoldecay/hmem/internal/adapterlog"
	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
)

var flagServeLogPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP stdio adapter loop",
	Long: `Serve reads one JSON tool-call envelope per line from stdin and
writes one JSON response per line to stdout, dispatching write_memory,
read_memory, update_memory, append_memory, search_memory, export_memory,
import_memory, reset_memory_cache, and the curator tool variants to the
store. It runs for the lifetime of the adapter connection (one process per
MCP session, per §9's per-connection session-cache design note).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeLogPath, "log-path", "", "adapter request log path (default: <project-dir>/.hmem/adapter.log)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := loadAdapterEnv()
	if err != nil {
		return err
	}

	logPath := flagServeLogPath
	if logPath == "" {
		logPath = filepath.Join(env.ProjectDir, ".hmem", "adapter.log")
	}
	logger, writer := adapterlog.New(adapterlog.Options{Path: logPath, Level: slog.LevelInfo})
	defer writer.Close()
	reqLog := adapterlog.NewRequestLogger(logger)

	cfg, err := config.Load(env.ProjectDir)
	if err != nil {
		return fmt.Errorf("hmem serve: loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(env.DBPath), 0o755); err != nil {
		return fmt.Errorf("hmem serve: preparing data directory: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.Open(ctx, env.DBPath, cfg)
	if err != nil {
		return fmt.Errorf("hmem serve: opening store: %w", err)
	}
	defer s.Close()

	watcher, err := config.WatchFile(config.ConfigFileUsed(), env.ProjectDir, func(next *config.Config, reloadErr error) {
		if reloadErr != nil {
			logger.Warn("config reload failed", "error", reloadErr)
			return
		}
		*s.Config() = *next
		logger.Info("config reloaded")
	})
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	sess := &session{
		store: s,
		env:   env,
		cache: sessioncache.New(),
		log:   reqLog,
	}

	return serveLoop(ctx, os.Stdin, os.Stdout, sess)
}

// serveLoop implements the one-line-in, one-line-out protocol: it never
// exits on a malformed line (replies with an error envelope instead) and
// only returns when stdin closes or ctx is cancelled.
func serveLoop(ctx context.Context, in io.Reader, out io.Writer, sess *session) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var call ToolCall
		if err := json.Unmarshal(line, &call); err != nil {
			if encErr := enc.Encode(errResponse("", fmt.Errorf("hmem: malformed tool call: %w", err))); encErr != nil {
				return encErr
			}
			continue
		}
		if call.RequestID == "" {
			call.RequestID = uuid.NewString()
		}

		resp := sess.dispatch(ctx, call)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}
