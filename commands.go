package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukane-philemon/srms/internal/config"
	"github.com/ukane-philemon/srms/internal/db/flatfile"
	"github.com/ukane-philemon/srms/internal/session"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"
)

var (
	sortByScore bool
	descending  bool
	noProgress  bool
	forceInit   bool
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive record manager",
	Long: `Loads the records, shows a menu to add, update, delete, search and list
students, and saves the records on exit or when the input ends.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, closeFn, err := loadStore(ctx)
		if err != nil {
			return err
		}
		defer closeFn(ctx)

		var students []*student.Student
		if sortByScore {
			students = store.StudentsByScore(!descending)
		} else {
			students = store.Students()
			if descending {
				for i, j := 0, len(students)-1; i < j; i, j = i+1, j-1 {
					students[i], students[j] = students[j], students[i]
				}
			}
		}

		out := cmd.OutOrStdout()
		if len(students) == 0 {
			fmt.Fprintln(out, "No records.")
			return nil
		}
		for _, s := range students {
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the data file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Backend != config.BackendFile {
			return errors.New("info is only available for the file backend")
		}

		info, err := flatfile.NewFile(cfg.Storage.DataFile, logger).Info()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "File:", info.Name)
		fmt.Fprintln(out, "Path:", info.AbsolutePath)
		fmt.Fprintln(out, "Exists:", info.Exists)
		if info.Exists {
			fmt.Fprintln(out, "Permissions:", info.Mode.Perm())
			fmt.Fprintln(out, "Size (bytes):", info.Size)
			fmt.Fprintln(out, "Modified:", info.ModTime.Format(time.RFC3339))
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Long: `Writes the configuration in effect (defaults, config file, environment and
flags) to the path given by --config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !forceInit {
			_, err := os.Stat(configPath)
			if err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite it", configPath)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}

		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration written to", configPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	listCmd.Flags().BoolVar(&sortByScore, "by-score", false, "order by score instead of id")
	listCmd.Flags().BoolVar(&descending, "desc", false, "descending order")
	for _, c := range []*cobra.Command{rootCmd, shellCmd} {
		c.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress indicator")
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	persister, closeFn, err := openPersister(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn(ctx)

	sessionCfg := session.Config{ProgressInterval: session.DefaultProgressInterval}
	if noProgress {
		sessionCfg.ProgressInterval = 0
	}
	if f, ok := persister.(*flatfile.File); ok {
		logger.Debug("Using data file", zap.String("path", f.Path()))
		sessionCfg.Info = f.Info
	}

	s := session.New(sessionCfg, cmd.InOrStdin(), cmd.OutOrStdout(), student.NewStore(), persister, logger)
	return s.Run(ctx)
}
