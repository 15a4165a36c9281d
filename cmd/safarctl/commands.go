// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/backup"
	"github.com/vedantlahane/safarsathi/internal/config"
	"github.com/vedantlahane/safarsathi/internal/database"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/sequence"
)

// app holds the dependencies the commands reach for, so tests can swap the
// config loader.
type app struct {
	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.DatabaseConfig) (*database.DB, error)
	timeout    time.Duration
}

func defaultApp() *app {
	return &app{
		loadConfig: config.Load,
		openDB:     database.New,
		timeout:    30 * time.Second,
	}
}

func newRootCmd(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "safarctl",
		Short:        "Operator tooling for SafarSathi",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configFile == "" {
				return nil
			}
			if _, err := os.Stat(configFile); err != nil {
				return fmt.Errorf("config file: %w", err)
			}
			return os.Setenv(config.ConfigPathEnvVar, configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config.yaml (default: search standard locations)")

	root.AddCommand(newMigrateCmd(a), newSequenceCmd(a), newAlertsCmd(a), newAuditCmd(a), newBackupCmd(a))
	return root
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the DuckDB schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			// database.New applies the schema on open.
			db, err := a.openDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready at %s\n", db.Path())
			return nil
		},
	}
}

func newSequenceCmd(a *app) *cobra.Command {
	seq := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect identity sequences",
	}
	seq.AddCommand(&cobra.Command{
		Use:   "next <name>",
		Short: "Draw the next value from a sequence on the configured backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			db, err := a.openDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			var rdb redis.UniversalClient
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer client.Close()
				rdb = client
			}

			gen, cleanup, err := sequence.Open(ctx, &cfg.Sequence, db.Conn(), rdb)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := gen.Next(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	})
	return seq
}

func newAlertsCmd(a *app) *cobra.Command {
	alerts := &cobra.Command{
		Use:   "alerts",
		Short: "Query stored alerts",
	}

	var (
		active  bool
		limit   int
		tourist string
		asJSON  bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			db, err := a.openDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			filter := models.AlertFilter{TouristID: tourist, Limit: limit}
			if active {
				filter.Status = models.StatusOpen
			}
			items, err := db.ListAlerts(ctx, filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeAlertsJSON(cmd.OutOrStdout(), items)
			}
			return writeAlertsTable(cmd.OutOrStdout(), items)
		},
	}
	list.Flags().BoolVar(&active, "active", false, "only OPEN alerts")
	list.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	list.Flags().StringVar(&tourist, "tourist", "", "only alerts for this tourist id")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	alerts.AddCommand(list)
	return alerts
}

func newAuditCmd(a *app) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the alert audit trail",
	}

	var (
		types  []string
		target string
		limit  int
		asJSON bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := audit.QueryFilter{TargetID: target, Limit: limit}
			for _, t := range types {
				et := audit.EventType(t)
				if !et.Valid() {
					return fmt.Errorf("unknown event type %q", t)
				}
				filter.Types = append(filter.Types, et)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			db, err := a.openDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			store := audit.NewDuckDBStore(db.Conn())
			if err := store.CreateTable(ctx); err != nil {
				return err
			}
			events, err := store.Query(ctx, filter)
			if err != nil {
				return err
			}
			if asJSON {
				if events == nil {
					events = []audit.Event{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTYPE\tOUTCOME\tACTOR\tTARGET\tDESCRIPTION")
			for _, e := range events {
				targetStr := "-"
				if e.Target != nil {
					targetStr = e.Target.Type + ":" + e.Target.ID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.UTC().Format(time.RFC3339), e.Type, e.Outcome,
					e.Actor.Type+":"+e.Actor.ID, targetStr, truncate(e.Description, 60))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringSliceVar(&types, "type", nil, "event types, e.g. alert.raised,alert.status_changed")
	list.Flags().StringVar(&target, "target", "", "only events for this target id")
	list.Flags().IntVar(&limit, "limit", audit.DefaultQueryLimit, "maximum rows")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	auditCmd.AddCommand(list)
	return auditCmd
}

func newBackupCmd(a *app) *cobra.Command {
	var dir string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, verify, prune and restore database backups",
	}
	backupCmd.PersistentFlags().StringVar(&dir, "dir", "", "backup directory (default: backup.dir from config)")

	manager := func(withDB bool) (*backup.Manager, *config.Config, func(), error) {
		cfg, err := a.loadConfig()
		if err != nil {
			return nil, nil, nil, err
		}
		target := dir
		if target == "" {
			target = cfg.Backup.Dir
		}
		if !withDB {
			m, err := backup.NewManager(target, nil)
			return m, cfg, func() {}, err
		}
		db, err := a.openDB(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		m, err := backup.NewManager(target, db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return m, cfg, func() { db.Close() }, nil
	}

	var notes string
	create := &cobra.Command{
		Use:   "create",
		Short: "Checkpoint the database and write a new archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, _, done, err := manager(true)
			if err != nil {
				return err
			}
			defer done()
			ctx, cancel := a.context()
			defer cancel()

			b, err := m.Create(ctx, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.ID, b.FilePath)
			return nil
		},
	}
	create.Flags().StringVar(&notes, "notes", "", "free-form note stored with the backup")

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, _, done, err := manager(false)
			if err != nil {
				return err
			}
			defer done()
			all, err := m.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSIZE\tALERTS\tNOTES")
			for _, b := range all {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					b.ID, b.CreatedAt.UTC().Format(time.RFC3339), b.FileSize, b.Counts["alerts"], truncate(b.Notes, 40))
			}
			return tw.Flush()
		},
	}

	verify := &cobra.Command{
		Use:   "verify <id>",
		Short: "Check archive and file checksums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, done, err := manager(false)
			if err != nil {
				return err
			}
			defer done()
			if err := m.Verify(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s ok\n", args[0])
			return nil
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete backups outside the retention policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, cfg, done, err := manager(false)
			if err != nil {
				return err
			}
			defer done()
			deleted, err := m.Prune(backup.RetentionPolicy{
				MinCount:   cfg.Backup.MinCount,
				MaxCount:   cfg.Backup.MaxCount,
				MaxAgeDays: cfg.Backup.MaxAgeDays,
			})
			for _, b := range deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", b.ID)
			}
			return err
		},
	}

	var restoreTo string
	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Extract a backup to a new database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if restoreTo == "" {
				return fmt.Errorf("--to is required")
			}
			m, _, done, err := manager(false)
			if err != nil {
				return err
			}
			defer done()
			if err := m.Restore(args[0], restoreTo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], restoreTo)
			return nil
		},
	}
	restore.Flags().StringVar(&restoreTo, "to", "", "path of the database file to create")

	backupCmd.AddCommand(create, list, verify, prune, restore)
	return backupCmd
}

func writeAlertsJSON(w io.Writer, items []*models.Alert) error {
	if items == nil {
		items = []*models.Alert{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeAlertsTable(w io.Writer, items []*models.Alert) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTOURIST\tTYPE\tPRIORITY\tSTATUS\tCREATED\tMESSAGE")
	for _, al := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			al.ID, al.TouristID, al.Type, models.PriorityFor(al.Type), al.Status,
			al.CreatedAt.UTC().Format(time.RFC3339), truncate(al.Message, 60))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
