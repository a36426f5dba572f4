// FilePath: cmd/analyzer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tm "github.com/buger/goterm"
	"github.com/itsatony/envmon/internal/analysis"
	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/repository/files"
	"github.com/sosodev/duration"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()

	flags := pflag.NewFlagSet("analyzer", pflag.ExitOnError)
	flags.String("api-url", "http://localhost:8080/api/v1", "hub API base URL")
	flags.String("window", "PT24H", "analysis window as an ISO-8601 duration")
	flags.Float64("z-threshold", analysis.DefaultZThreshold, "anomaly z-score multiplier")
	flags.Int("max-points", analysis.DefaultMaxPoints, "maximum readings per sensor window")
	flags.String("out", "./reports", "directory for the JSON report")
	flags.Parse(os.Args[1:])

	v := viper.New()
	v.BindPFlag("simulator.api_url", flags.Lookup("api-url"))
	v.BindPFlag("analysis.z_threshold", flags.Lookup("z-threshold"))
	v.BindPFlag("analysis.max_points", flags.Lookup("max-points"))
	v.BindPFlag("filestore.base_path", flags.Lookup("out"))

	rawWindow, _ := flags.GetString("window")
	window, err := parseWindow(rawWindow)
	if err != nil {
		nuts.L.Fatalf("[Analyzer] %v", err)
	}
	v.Set("analysis.window", window)

	cfg, err := config.LoadWith(v)
	if err != nil {
		nuts.L.Fatalf("[Analyzer] Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		nuts.L.Errorf("[Analyzer] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	nuts.L.Infof("[Analyzer] Analyzing %v of readings from %s", cfg.Analysis.Window, cfg.Simulator.APIURL)

	analyzer := analysis.NewAnalyzer(analysis.NewAPIClient(cfg.Simulator.APIURL), analysis.Options{
		Window:     cfg.Analysis.Window,
		ZThreshold: cfg.Analysis.ZThreshold,
		MaxPoints:  cfg.Analysis.MaxPoints,
	})
	report, err := analyzer.Run(ctx)
	if err != nil {
		return err
	}

	archive, err := files.NewReportRepository(files.FileConfig{BasePath: cfg.FileStore.BasePath})
	if err != nil {
		return err
	}
	name, err := archive.SaveReport(ctx, report)
	if err != nil {
		return err
	}

	printSummary(report)
	tm.Printf("Report saved as %s\n", tm.Bold(name))
	tm.Flush()
	return nil
}

// parseWindow accepts ISO-8601 durations such as PT24H or P7D
func parseWindow(raw string) (time.Duration, error) {
	d, err := duration.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", raw, err)
	}
	window := d.ToTimeDuration()
	if window <= 0 {
		return 0, fmt.Errorf("window %q must be positive", raw)
	}
	return window, nil
}

func printSummary(report *analysis.Report) {
	ids := make([]string, 0, len(report.Sensors))
	for id := range report.Sensors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := tm.NewTable(0, 10, 2, ' ', 0)
	fmt.Fprintf(table, "SENSOR\tCOUNT\tMEAN\tSTD\tTREND\tANOMALIES\n")
	for _, id := range ids {
		s := report.Sensors[id]
		trend := "-"
		if s.Trend != nil {
			trend = string(s.Trend.Direction)
		}
		fmt.Fprintf(table, "%s\t%d\t%.2f\t%.2f\t%s\t%d\n",
			id, s.Statistics.Count, s.Statistics.Mean, s.Statistics.Std, trend, s.AnomaliesCount)
	}
	tm.Println(table)

	rate := fmt.Sprintf("%.2f%%", report.Summary.AnomalyRate)
	if report.Summary.TotalAnomalies > 0 {
		rate = tm.Color(rate, tm.YELLOW)
	}
	tm.Printf("%d sensors, %d readings, %d anomalies (%s)\n",
		report.TotalSensors, report.Summary.TotalReadings, report.Summary.TotalAnomalies, rate)
}
