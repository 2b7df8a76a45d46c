package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/diff"
	"github.com/computerscienceiscool/llm-fstools/pkg/evaluator"
	"github.com/computerscienceiscool/llm-fstools/pkg/regexguard"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/search"
)

// commandSandbox builds the sandbox the run command would use, so
// subcommands see the same roots and exclusions
func commandSandbox(v *viper.Viper) (*config.Config, *sandbox.Sandbox, error) {
	cfg, err := buildConfig(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build config: %w", err)
	}
	sb, err := sandbox.New(cfg.Roots, sandbox.WithExcludedPaths(cfg.ExcludedPaths))
	if err != nil {
		return nil, nil, err
	}
	return cfg, sb, nil
}

func newSearchCommand(v *viper.Viper) *cobra.Command {
	var (
		name    string
		root    string
		limit   int
		ordered bool
	)

	cmd := &cobra.Command{
		Use:   "search [CONTENT_REGEX]",
		Short: "Search files by name and/or content",
		Long: `Search walks the first root (or --path, which must lie inside the roots)
and reports files whose name
matches --name or whose content matches CONTENT_REGEX. At least one of
the two must be given. Results are ranked by relevance unless --ordered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			if len(args) == 1 {
				content = args[0]
			}
			if content == "" && name == "" {
				return errors.New("a content pattern or --name is required")
			}

			cfg, sb, err := commandSandbox(v)
			if err != nil {
				return err
			}
			absRoot := sb.Primary()
			if root != "" {
				if absRoot, err = sb.Resolve(root, sandbox.OpRead); err != nil {
					return err
				}
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			engine := search.NewEngine(search.WithLogger(logger))
			opts := cfg.SearchOptions()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout+time.Second)
			defer cancel()

			start := time.Now()
			res, err := engine.SearchBoth(ctx, absRoot, name, content, opts)
			if err != nil {
				return err
			}
			if !ordered {
				search.SortByRelevance(res.Matches)
			}

			if limit <= 0 {
				limit = cfg.Search.MaxResults
			}
			query := content
			if query == "" {
				query = name
			}
			fmt.Fprint(cmd.OutOrStdout(), search.FormatResults(res, query, limit, time.Since(start)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filename regex")
	cmd.Flags().StringVar(&root, "path", "", "Directory to search inside the roots (default: first root)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results to print (default: search.max_results)")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "Keep traversal order instead of ranking by relevance")
	return cmd
}

func newDiffCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Print a unified diff between two files inside the roots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sb, err := commandSandbox(v)
			if err != nil {
				return err
			}
			oldPath, err := sb.Resolve(args[0], sandbox.OpRead)
			if err != nil {
				return err
			}
			newPath, err := sb.Resolve(args[1], sandbox.OpRead)
			if err != nil {
				return err
			}

			oldText, err := os.ReadFile(oldPath)
			if err != nil {
				return err
			}
			newText, err := os.ReadFile(newPath)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), diff.Compute(string(oldText), string(newText), filepath.ToSlash(args[1])))
			return nil
		},
	}
}

func newPatchCommand(v *viper.Viper) *cobra.Command {
	var inPlace bool

	cmd := &cobra.Command{
		Use:   "patch FILE PATCH",
		Short: "Apply a unified diff to a file",
		Long: `Patch applies every hunk of PATCH to FILE, which must lie inside the
roots. Nothing is written unless all hunks apply. Without --in-place the
patched content goes to stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sb, err := commandSandbox(v)
			if err != nil {
				return err
			}
			op := sandbox.OpRead
			if inPlace {
				op = sandbox.OpWrite
			}
			target, err := sb.Resolve(args[0], op)
			if err != nil {
				return err
			}
			if inPlace {
				if err := sandbox.ValidateWriteExtension(target, cfg.AllowedExtensions); err != nil {
					return err
				}
			}

			original, err := os.ReadFile(target)
			if err != nil {
				return err
			}
			patch, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			res := diff.Apply(string(original), string(patch))
			if res.Err != nil {
				return fmt.Errorf("patch failed after %d hunk(s): %w", res.HunksApplied, res.Err)
			}

			if !inPlace {
				fmt.Fprint(cmd.OutOrStdout(), res.Content)
				return nil
			}
			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			if err := evaluator.WriteFileAtomic(target, []byte(res.Content), info.Mode().Perm()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patched %s (%d hunks)\n", args[0], res.HunksApplied)
			return nil
		},
	}

	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Write the result back to FILE")
	return cmd
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	var (
		op      string
		isRegex bool
	)

	cmd := &cobra.Command{
		Use:   "validate TARGET",
		Short: "Check a path against the sandbox or a pattern against the regex guard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if isRegex {
				res := regexguard.Validate(args[0])
				if res.Valid {
					fmt.Fprintln(out, "valid")
					return nil
				}
				fmt.Fprintf(out, "invalid: %s: %s\n", res.Reason, res.Message)
				if res.Suggestion != "" {
					fmt.Fprintf(out, "suggestion: %s\n", res.Suggestion)
				}
				return res.Err(args[0])
			}

			_, sb, err := commandSandbox(v)
			if err != nil {
				return err
			}

			res := sb.Validate(args[0], sandbox.Operation(op))
			if res.Allowed {
				fmt.Fprintf(out, "allowed: %s\n", res.ResolvedPath)
				return nil
			}
			fmt.Fprintf(out, "denied: %s\n", res.Reason)
			return fmt.Errorf("path %q denied for %s: %s", args[0], op, res.Reason)
		},
	}

	cmd.Flags().StringVar(&op, "op", string(sandbox.OpRead), "Operation to check: read, write, create, delete")
	cmd.Flags().BoolVar(&isRegex, "regex", false, "Treat TARGET as a regular expression")
	return cmd
}

func newAuditCommand(v *viper.Viper) *cobra.Command {
	var (
		limit     int
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent entries from the audit database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v)
			if err != nil {
				return fmt.Errorf("failed to build config: %w", err)
			}
			if cfg.Security.AuditDBPath == "" {
				return errors.New("no audit database configured (set --audit-db)")
			}

			store, err := sandbox.NewAuditStore(cfg.Security.AuditDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(sessionID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				status := "success"
				if !e.Success {
					status = "failed"
				}
				fmt.Fprintf(out, "%s|%s|%s|%s|%s|%s\n",
					e.Timestamp.Format(time.RFC3339), e.SessionID, e.Command, e.Argument, status, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only show entries from this session")
	return cmd
}

func newInitConfigCommand(v *viper.Viper) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write the effective settings to a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(v, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
