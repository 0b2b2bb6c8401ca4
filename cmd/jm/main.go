package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daviddao/jobmail/internal/auth"
	"github.com/daviddao/jobmail/internal/classify"
	"github.com/daviddao/jobmail/internal/config"
	"github.com/daviddao/jobmail/internal/db"
	"github.com/daviddao/jobmail/internal/gmail"
	"github.com/daviddao/jobmail/internal/logging"
	"github.com/daviddao/jobmail/internal/pipeline"
	"github.com/daviddao/jobmail/internal/resolve"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	dbPath     string
	configPath string
	logLevel   string
	jsonOutput bool
	quietFlag  bool

	cfg    *config.Config
	logger *logrus.Logger
	store  *db.DB
)

var rootCmd = &cobra.Command{
	Use:           "jm",
	Short:         "jm - Track job applications from your inbox",
	Long:          "jobmail: read job mail from Gmail, classify it and keep one record per application.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		// Skip DB for commands that don't need it
		switch cmd.Name() {
		case "init", "help", "version", "quickstart", "auth", "extract":
			return nil
		case "search", "read", "queries":
			if cmd.Parent() != nil && cmd.Parent().Name() == "gmail" {
				return nil
			}
		case "gmail":
			return nil
		}

		path := resolveDBPath()
		if path == "" {
			return fmt.Errorf("no jobmail database found; run 'jm init' first")
		}

		var err error
		store, err = db.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

// resolveDBPath picks the database: --db, then DB_PATH or config, then discovery.
func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath
	}
	return db.DiscoverDB()
}

func loadConfig() error {
	if err := config.LoadDotenv(); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		candidate := dbPath
		if candidate == "" {
			candidate = os.Getenv("DB_PATH")
		}
		if candidate == "" {
			candidate = db.DiscoverDB()
		}
		path = config.Discover(candidate)
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger = logging.New(level, cfg.Log.Format, os.Stderr)

	// Only polling refuses to run on a bad config; elsewhere it is a warning.
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Warn("Configuration has problems")
	}
	return nil
}

// newPipeline builds the stages from config. A nil store gives a dry-run
// pipeline that never resolves.
func newPipeline() (*pipeline.Pipeline, error) {
	cls, err := classify.New(classify.Rules, cfg.ClassifyOptions())
	if err != nil {
		return nil, err
	}
	var resolver *resolve.Resolver
	if store != nil {
		resolver = resolve.New(store,
			resolve.WithThreshold(cfg.Pipeline.SimilarityThreshold),
			resolve.WithLogger(logger))
	}
	p := pipeline.New(resolver, logger)
	p.Classifier = cls
	return p, nil
}

func authPaths() auth.Paths {
	return auth.Paths{Credentials: cfg.Gmail.Credentials, Token: cfg.Gmail.Token}
}

func gmailClient(ctx context.Context) (*gmail.Client, error) {
	svc, err := auth.LoadGmailService(ctx, authPaths(), logger)
	if err != nil {
		return nil, err
	}
	return gmail.New(svc, cfg.Gmail.User), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jm version %s\n", Version)
	},
}

var initReset bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .jobmail/ in the project root",
	Long: `Create the jobmail database. Without a git repository the current
directory is used. --reset drops every table and starts over.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveDBPath()
		root := ""
		if path == "" {
			root = db.FindProjectRoot()
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root = wd
			}
			path = filepath.Join(root, db.DirName, db.FileName)
		}

		s, err := db.Open(path)
		if err != nil {
			return err
		}
		defer s.Close()

		if initReset {
			if err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			logger.WithField("path", path).Warn("Database reset")
		}
		if root != "" {
			ensureGitignore(root)
		}

		if !quietFlag {
			fmt.Printf("Initialized jobmail at %s\n", path)
		}
		return nil
	},
}

// ensureGitignore adds .jobmail/ to .gitignore if not already present.
func ensureGitignore(root string) {
	gitignorePath := filepath.Join(root, ".gitignore")
	entry := db.DirName + "/"

	if f, err := os.Open(gitignorePath); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == entry || line == db.DirName {
				f.Close()
				return
			}
		}
		f.Close()
	}

	existing, _ := os.ReadFile(gitignorePath)
	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		f.WriteString("\n")
	}
	fmt.Fprintf(f, "\n# jobmail database (application tracker)\n%s\n", entry)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .jobmail/jobs.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: config.yaml beside the database)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	initCmd.Flags().BoolVar(&initReset, "reset", false, "Drop all data and recreate the schema")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
