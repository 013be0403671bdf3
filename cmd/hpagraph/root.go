package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iafilius/HPAScaleGraphs/src/graph"
	"github.com/iafilius/HPAScaleGraphs/src/hpalog"
	"github.com/iafilius/HPAScaleGraphs/src/logging"
	"github.com/iafilius/HPAScaleGraphs/src/metrics"
	"github.com/iafilius/HPAScaleGraphs/src/series"
)

// app carries the per-invocation state shared by all subcommands.
type app struct {
	v   *viper.Viper
	rec *metrics.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), rec: metrics.NewRecorder()}
	root := &cobra.Command{
		Use:   "hpagraph",
		Short: "Chart CPU utilization and replica counts from autoscaler watch logs",
		Long: `hpagraph extracts (cpu utilization, replicas) samples from the output of
"kubectl get hpa --watch" style runs and renders them as dual-axis PNG charts.

Examples:
  hpagraph graph run1.log -o run1.png
  hpagraph combined baseline.log tuned.log -o compare.png --titles Baseline,Tuned
  hpagraph summary logs/*.log
  HPAGRAPH_MARKER=my-app hpagraph graph run.log`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.flushMetrics,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Optional YAML config file")
	pf.String("marker", hpalog.DefaultMarker, "Workload name a line must contain")
	pf.Int("interval", series.DefaultInterval, "Seconds between consecutive samples")
	pf.Int("width", graph.DefaultWidth, "Figure width in pixels")
	pf.Int("panel-height", graph.DefaultPanelHeight, "Height of each panel in pixels")
	pf.String("log-level", "info", "Log level: debug|info|warn|error")
	pf.String("metrics-file", "", "Write run metrics in Prometheus textfile format to this path")

	// dashes in flags become underscores in viper keys
	for _, name := range []string{"marker", "interval", "width", "panel-height", "log-level", "metrics-file"} {
		_ = a.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), pf.Lookup(name))
	}
	a.v.SetEnvPrefix("hpagraph")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(a.graphCmd(), a.combinedCmd(), a.summaryCmd(), a.sizeCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		logging.Debugf("[config] loaded %s", a.v.ConfigFileUsed())
	}
	if lvl := a.v.GetString("log_level"); !logging.SetLevel(lvl) {
		return fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", lvl)
	}
	return nil
}

func (a *app) flushMetrics(_ *cobra.Command, _ []string) error {
	path := a.v.GetString("metrics_file")
	if path == "" {
		return nil
	}
	if err := a.rec.WriteTextfile(path); err != nil {
		return err
	}
	logging.Infof("[metrics] wrote %s", path)
	return nil
}

func (a *app) filter() hpalog.Filter { return hpalog.NewFilter(a.v.GetString("marker")) }

// load scans each path into the store. Labels that collide (same base name in different
// directories) get a numeric suffix so every input keeps its own panel.
func (a *app) load(paths []string) (*series.Store, []string, error) {
	st := series.NewStore()
	labels := make([]string, 0, len(paths))
	f := a.filter()
	for _, p := range paths {
		s, stats, err := series.Load(p, f, a.v.GetInt("interval"))
		if err != nil {
			return nil, nil, err
		}
		base := s.Label
		for n := 2; ; n++ {
			if _, taken := st.Get(s.Label); !taken {
				break
			}
			s.Label = fmt.Sprintf("%s#%d", base, n)
		}
		st.Put(s)
		labels = append(labels, s.Label)
		a.rec.Observe(s.Label, stats)
	}
	return st, labels, nil
}

func (a *app) write(fig graph.Figure, out string) error {
	if err := graph.WritePNG(fig, out); err != nil {
		return err
	}
	a.rec.MarkRender(time.Now())
	return nil
}

func (a *app) composeOptions() graph.ComposeOptions {
	return graph.ComposeOptions{
		Width:       a.v.GetInt("width"),
		PanelHeight: a.v.GetInt("panel_height"),
	}
}
