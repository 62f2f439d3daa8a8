// plexport is a command line export of the summary table, for checking the
// numbers without running the server.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/hatauchi-tech/Fukui-BI/internal/accounts"
	"github.com/hatauchi-tech/Fukui-BI/internal/cli"
	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	"github.com/hatauchi-tech/Fukui-BI/internal/loader"
	"github.com/hatauchi-tech/Fukui-BI/internal/processor"
)

func main() {
	var (
		dataDir   = flag.String("data", "./損益計算書", "directory holding the monthly CSV exports")
		periodArg = flag.String("period", "", "accounting period (YYYY/MM), empty for all")
		chartFile = flag.String("chart", "", "chart-of-accounts override (JSON)")
		outFile   = flag.String("o", "", "output file, default stdout")
	)
	flag.Parse()

	logger := cli.SetupLogger()

	var period core.Period
	if *periodArg != "" {
		var err error
		period, err = core.ParsePeriod(*periodArg)
		if err != nil {
			logger.Error("Invalid period", "period", *periodArg, "error", err)
			os.Exit(1)
		}
	}

	chart := accounts.Default()
	if *chartFile != "" {
		var err error
		chart, err = accounts.LoadFile(*chartFile)
		if err != nil {
			logger.Error("Failed to load chart of accounts", "error", err, "path", *chartFile)
			os.Exit(1)
		}
	}

	datasets, warnings, err := loader.New(*dataDir).LoadAll()
	if err != nil {
		logger.Error("Load failed", "error", err, "data_dir", *dataDir)
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("Load warning", "kind", w.Kind.String(), "file", w.File, "line", w.Line, "message", w.Message)
	}

	if !period.IsZero() {
		filtered := datasets[:0]
		for _, ds := range datasets {
			if ds.Period == period {
				filtered = append(filtered, ds)
			}
		}
		datasets = filtered
		if len(datasets) == 0 {
			logger.Error("No data for period", "period", period.String())
			os.Exit(1)
		}
	}

	rows, _ := processor.New(chart).Summarize(datasets, nil)

	out := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			logger.Error("Failed to create output file", "error", err, "path", *outFile)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	header := []string{
		"期間", "部門コード", "部門名", "売上高", "売上原価", "売上総利益",
		"販管費", "営業利益", "経常利益", "当期純利益", "原価率(%)", "粗利率(%)",
	}
	if err := w.Write(header); err != nil {
		logger.Error("Write failed", "error", err)
		os.Exit(1)
	}
	for _, s := range rows {
		record := []string{
			s.PeriodName,
			strconv.Itoa(int(s.Department)),
			s.DeptName,
			s.Sales.Format(),
			s.Cost.Format(),
			s.GrossProfit.Format(),
			s.SGA.Format(),
			s.OperatingProfit.Format(),
			s.OrdinaryProfit.Format(),
			s.NetProfit.Format(),
			formatRatio(s.CostRatio),
			formatRatio(s.GrossMargin),
		}
		if err := w.Write(record); err != nil {
			logger.Error("Write failed", "error", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Error("Write failed", "error", err)
		os.Exit(1)
	}
}

func formatRatio(r core.Ratio) string {
	if r.IsNaN() {
		return ""
	}
	return fmt.Sprintf("%.1f", float64(r))
}
