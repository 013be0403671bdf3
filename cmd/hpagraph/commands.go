package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iafilius/HPAScaleGraphs/src/graph"
	"github.com/iafilius/HPAScaleGraphs/src/logging"
	"github.com/iafilius/HPAScaleGraphs/src/series"
	"github.com/iafilius/HPAScaleGraphs/src/sizing"
)

const singleGraphTitle = "CPU Utilization and Replicas Over Time"

func (a *app) graphCmd() *cobra.Command {
	var out, title string
	cmd := &cobra.Command{
		Use:   "graph <log>",
		Short: "Render one log as a single dual-axis panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, labels, err := a.load(args)
			if err != nil {
				return err
			}
			list, err := st.Ordered(labels...)
			if err != nil {
				return err
			}
			opts := a.composeOptions()
			opts.Title = title
			// the figure title already names the chart
			opts.Titles = []string{""}
			fig, err := graph.Compose(list, opts)
			if err != nil {
				return err
			}
			return a.write(fig, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "cpu_replicas_plot.png", "Output PNG path")
	cmd.Flags().StringVar(&title, "title", singleGraphTitle, "Figure title")
	return cmd
}

func (a *app) combinedCmd() *cobra.Command {
	var out, title string
	var titles []string
	cmd := &cobra.Command{
		Use:   "combined <log1> <log2> [log...]",
		Short: "Stack several logs as panels sharing one time axis",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(titles) > len(args) {
				return fmt.Errorf("%d titles given for %d logs", len(titles), len(args))
			}
			st, labels, err := a.load(args)
			if err != nil {
				return err
			}
			list, err := st.Ordered(labels...)
			if err != nil {
				return err
			}
			opts := a.composeOptions()
			opts.Title = title
			opts.Titles = titles
			fig, err := graph.Compose(list, opts)
			if err != nil {
				return err
			}
			return a.write(fig, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "combined_graph.png", "Output PNG path")
	cmd.Flags().StringVar(&title, "title", "", "Optional figure title")
	cmd.Flags().StringSliceVar(&titles, "titles", nil, "Comma separated panel titles, in input order (default: file names)")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <log>...",
		Short: "Print extraction statistics and extents per log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]summaryRow, 0, len(args))
			f := a.filter()
			for _, p := range args {
				s, stats, err := series.Load(p, f, a.v.GetInt("interval"))
				if err != nil {
					return err
				}
				a.rec.Observe(s.Label, stats)
				rows = append(rows, summaryRow{label: s.Label, stats: stats, sum: s.Summarize()})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSummary(rows))
			return nil
		},
	}
}

func (a *app) sizeCmd() *cobra.Command {
	var users string
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Estimate VMs and storage for a user count and record the estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.sizingStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			h := sizing.NewHandler(store, nil)
			resp, err := h.Handle(ctx, sizing.Request{Users: json.Number(strings.TrimSpace(users))})
			// Body is already a JSON document
			fmt.Fprintf(cmd.OutOrStdout(), "{\"statusCode\":%d,\"body\":%s}\n", resp.StatusCode, resp.Body)
			return err
		},
	}
	cmd.Flags().StringVar(&users, "users", "", "Number of users to size for")
	cmd.Flags().String("db-driver", "", "Record store driver: sqlite|postgres (empty keeps records in memory)")
	cmd.Flags().String("db-dsn", "", "Record store DSN (sqlite file path or postgres URL)")
	_ = a.v.BindPFlag("db_driver", cmd.Flags().Lookup("db-driver"))
	_ = a.v.BindPFlag("db_dsn", cmd.Flags().Lookup("db-dsn"))
	return cmd
}

func (a *app) sizingStore(ctx context.Context) (sizing.Store, func(), error) {
	driver, dsn := a.v.GetString("db_driver"), a.v.GetString("db_dsn")
	if driver == "" && dsn == "" {
		logging.Debugf("[sizing] no database configured, using memory store")
		return sizing.NewMemoryStore(), func() {}, nil
	}
	st, err := sizing.OpenSQLStore(ctx, sizing.SQLConfig{Driver: driver, DSN: dsn})
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}
