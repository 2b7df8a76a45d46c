package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/computerscienceiscool/llm-fstools/pkg/config"
)

// NewRootCommand builds the llm-fstools command tree around v. Flags,
// the config file and LLMFS_* environment variables all feed v.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "llm-fstools",
		Short: "Sandboxed filesystem tools for LLMs",
		Long: `llm-fstools lets Large Language Models read, write, edit and search files
inside a fixed set of root directories. It processes commands like <open>, <write>,
<edit>, <search>, <find>, <delete> and <mkdir> from stdin or --input.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(v)
		},
	}

	flags := rootCmd.PersistentFlags()

	// Sandbox flags
	flags.String("config", "", "Config file (default: ./llm-fstools.config.yaml or $HOME/llm-fstools.config.yaml)")
	flags.StringSlice("roots", nil, "Comma-separated list of root directories (default: current directory)")
	flags.StringSlice("exclude", []string{".git", ".env", "*.key", "*.pem"}, "Comma-separated list of excluded path globs")
	flags.Bool("scratch", false, "Work in a throwaway git repository instead of --roots")

	// I/O flags
	flags.String("input", "", "Input file (default: stdin)")
	flags.String("output", "", "Output file (default: stdout)")
	flags.Bool("interactive", false, "Run in interactive mode")
	flags.Bool("verbose", false, "Print configuration at start and metrics at exit")

	// File operation flags
	flags.Int64("max-size", config.DefaultMaxFileSize, "Maximum file size in bytes for reading")
	flags.Int64("max-write-size", config.DefaultMaxWriteSize, "Maximum content size in bytes for writing")
	flags.StringSlice("allowed-extensions", nil, "Comma-separated list of allowed file extensions for writing")
	flags.Bool("backup", true, "Create backup before overwriting files")

	// Search, audit and logging flags map onto nested keys
	flags.Duration("search-timeout", config.DefaultSearchTimeout, "Wall-clock limit per search")
	flags.Int("search-workers", 0, "Parallel directory walkers (0 or 1: sequential, deterministic order)")
	flags.String("audit-log", config.DefaultAuditLogPath, "Audit log file (empty disables)")
	flags.String("audit-db", config.DefaultAuditDBPath, "SQLite audit database (empty disables)")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")

	bindFlags(v, rootCmd)

	rootCmd.AddCommand(
		newSearchCommand(v),
		newDiffCommand(v),
		newPatchCommand(v),
		newValidateCommand(v),
		newAuditCommand(v),
		newInitConfigCommand(v),
	)

	return rootCmd
}

// flagKeys maps flag names onto config keys where they differ
var flagKeys = map[string]string{
	"search-timeout": "search.timeout",
	"search-workers": "search.workers",
	"audit-log":      "security.audit_log_path",
	"audit-db":       "security.audit_db_path",
	"log-level":      "logging.level",
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(f *pflagFlag) {
		key := f.Name
		if mapped, ok := flagKeys[key]; ok {
			key = mapped
		}
		_ = v.BindPFlag(key, f)
	})
}

func runRoot(v *viper.Viper) error {
	cfg, err := buildConfig(v)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	app, err := bootstrapApp(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer app.Close()

	return app.Run()
}

// Execute runs the root command
func Execute() error {
	v := viper.New()
	config.SetDefaults(v)
	return NewRootCommand(v).Execute()
}
