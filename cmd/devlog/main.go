package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/philackm/devlog/internal/api"
	"github.com/philackm/devlog/internal/build"
	"github.com/philackm/devlog/internal/config"
	"github.com/philackm/devlog/internal/entry"
	"github.com/philackm/devlog/internal/logging"
	"github.com/philackm/devlog/internal/scaffold"
	"github.com/philackm/devlog/internal/store"
	"github.com/philackm/devlog/internal/watch"
)

var (
	location string
	cfgFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "devlog",
		Short:         "Static development log generator",
		Long:          "devlog turns a folder of markdown entries into a static website, rebuilding only what changed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&location, "location", "l", ".", "init: where to create the devlog. others: the devlog root")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <location>/devlog.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(historyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// app is the wiring shared by every command working on an existing devlog
type app struct {
	cfg     *config.Config
	logs    *logging.Provider
	builder *build.Builder
	runs    *store.Store
}

func loadApp(withRuns bool) (*app, error) {
	root, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}

	cfg, err := config.Load(root, cfgFile)
	if err != nil {
		return nil, err
	}

	logs, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, err
	}

	conv, err := cfg.NewConverter()
	if err != nil {
		return nil, err
	}
	parser, err := entry.NewParser(cfg.Format, conv)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logs: logs}
	var opts []build.Option
	if withRuns && cfg.RecordRuns {
		s, err := store.New(cfg.Path(cfg.RunsDB))
		if err != nil {
			return nil, err
		}
		a.runs = s
		opts = append(opts, build.WithRecorder(s))
	}

	a.builder = build.New(cfg.Layout(), parser, logs.Get("devlog.build"), opts...)
	return a, nil
}

func (a *app) Close() {
	if a.runs != nil {
		a.runs.Close()
	}
}

// runStore avoids handing api a typed nil
func (a *app) runStore() api.RunStore {
	if a.runs == nil {
		return nil
	}
	return a.runs
}

func initCmd() *cobra.Command {
	var examples bool
	var defaults string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new devlog with the default views",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := logging.New(logging.Config{Level: "info"})
			if err != nil {
				return err
			}

			// picks up --config and DEVLOG_* overrides for the new project
			cfg, err := config.Load(filepath.Join(location, scaffold.RootFolder), cfgFile)
			if err != nil {
				return err
			}

			res, err := scaffold.Init(cmd.Context(), location, scaffold.Options{
				Examples: examples,
				Source:   scaffold.NewSource(defaultsLocation(defaults, cfg), 0),
				Logger:   logs.Get("devlog.init"),
				Config:   cfg,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created devlog in %s\n", res.Root)
			fmt.Printf("Installed %d default files\n", len(res.Written))
			if len(res.Missing) > 0 {
				fmt.Printf("%d default files could not be found; the build may not work correctly\n", len(res.Missing))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&examples, "examples", "x", false, "include example entries")
	cmd.Flags().StringVar(&defaults, "defaults", "", "URL or directory holding the default views (default is defaults_url)")
	return cmd
}

// defaultsLocation prefers the --defaults flag over the configured defaults_url
func defaultsLocation(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.DefaultsURL
}

func buildCmd() *cobra.Command {
	var incremental bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the site from the entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.builder.Build(cmd.Context(), incremental)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "only build entries changed since the last build")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	var watchChanges bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built site and the entries API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			server := api.New(a.builder, a.runStore(), a.logs.Get("devlog.api"), addr)
			if !watchChanges {
				return server.Run(ctx)
			}

			rebuild := func(ctx context.Context) error {
				report, err := a.builder.Build(ctx, true)
				if err == nil {
					printReport(report)
				}
				return err
			}
			if err := rebuild(ctx); err != nil {
				return err
			}

			layout := a.builder.Layout()
			w := watch.New([]string{layout.Entries(), layout.Views()}, rebuild, a.logs.Get("devlog.watch"))

			errCh := make(chan error, 1)
			go func() { errCh <- w.Run(ctx) }()

			err = server.Run(ctx)
			cancel()
			if werr := <-errCh; err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	cmd.Flags().BoolVarP(&watchChanges, "watch", "w", false, "rebuild incrementally when entries or views change")
	return cmd
}

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List entries in index order, optionally fuzzy filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, skipped, err := a.builder.Entries()
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No entries yet. Add markdown files to the entries folder.")
				return nil
			}

			if len(args) == 1 {
				entries = filterEntries(entries, args[0])
				if len(entries) == 0 {
					fmt.Println("No matching entries found.")
					return nil
				}
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			fmt.Print(renderEntryList(entries))
			if len(skipped) > 0 {
				fmt.Printf("\n%d entries could not be parsed\n", len(skipped))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries to show (0 for all)")
	return cmd
}

func showCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Render an entry in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, _, err := a.builder.Entries()
			if err != nil {
				return err
			}

			e := build.Find(entries, args[0])
			if e == nil {
				return fmt.Errorf("entry not found: %s", args[0])
			}

			body, err := entry.ReadBody(e.Path)
			if err != nil {
				return err
			}
			if raw {
				fmt.Print(body)
				return nil
			}

			out, err := renderEntry(e, body)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	return cmd
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, _, err := a.builder.Entries()
			if err != nil {
				return err
			}

			tags := build.CountTags(entries)
			if len(tags) == 0 {
				fmt.Println("No tags yet. Add [tag]: # (name) lines to your entries.")
				return nil
			}

			fmt.Print(renderTags(tags))
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	var entryName string

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded build runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.runs == nil {
				fmt.Println("Run recording is disabled (record_runs: false).")
				return nil
			}

			if entryName != "" {
				entries, _, err := a.builder.Entries()
				if err != nil {
					return err
				}
				e := build.Find(entries, entryName)
				if e == nil {
					return fmt.Errorf("entry not found: %s", entryName)
				}
				results, err := a.runs.EntryHistory(cmd.Context(), e.Path, limit)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Printf("No builds recorded for %s yet.\n", e.FileName)
					return nil
				}
				fmt.Print(renderEntryHistory(e, results))
				return nil
			}

			if len(args) == 1 {
				run, err := a.runs.GetRun(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("run not found: %s: %w", args[0], err)
				}
				fmt.Print(renderRun(run))
				return nil
			}

			runs, err := a.runs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No builds recorded yet. Use 'devlog build' to create one.")
				return nil
			}
			fmt.Print(renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().StringVarP(&entryName, "entry", "e", "", "show the build results of one entry")
	return cmd
}

func printReport(report *build.Report) {
	run := report.Run
	fmt.Printf("Built %d, unchanged %d, failed %d, skipped %d; %d entries in index\n",
		run.Built, run.Unchanged, run.Failed, run.Skipped, report.Indexed)
}
