// wl-query fetches one WeatherLink observation and prints the driver values
// the node server would publish, without connecting to a host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/chrissnell/weatherlink-ns/internal/app"
	"github.com/chrissnell/weatherlink-ns/internal/host/memory"
	"github.com/chrissnell/weatherlink-ns/internal/log"
	"github.com/chrissnell/weatherlink-ns/internal/nodes"
	"github.com/chrissnell/weatherlink-ns/pkg/config"
	"github.com/chrissnell/weatherlink-ns/pkg/units"
	"github.com/chrissnell/weatherlink-ns/pkg/weatherlink"
	"github.com/dustin/go-humanize"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to YAML configuration file")
	unitsFlag := flag.String("units", "", "Override the configured unit system (us or metric)")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	cfg, err := config.NewYAMLProvider(filename).LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	initial := app.StationParams(cfg.Station)
	if *unitsFlag != "" {
		initial[nodes.ParamUnits] = units.ParseSystem(*unitsFlag).String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	h := memory.New()
	ctl := nodes.NewController(h, log.GetSugaredLogger(), nodes.ControllerOptions{
		Params:     nodes.NewParams(nodes.DefaultParamSpecs, initial),
		NewFetcher: nodes.WeatherLinkFetcher(log.GetSugaredLogger(), weatherlink.WithEndpoint(cfg.Station.APIEndpoint), weatherlink.WithTimeout(*timeout)),
	})

	if err := ctl.Start(ctx); err != nil {
		log.Fatalf("could not start: %v", err)
	}
	if !ctl.Configured() {
		for _, text := range h.Notices() {
			fmt.Fprintln(os.Stderr, text)
		}
		os.Exit(1)
	}

	last, pollErr := ctl.LastPoll()
	if pollErr != nil {
		log.Fatalf("poll failed: %v", pollErr)
	}

	fmt.Printf("Observation fetched %s (%s units)\n\n", humanize.Time(last), ctl.Units())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, n := range ctl.Nodes() {
		fmt.Fprintf(w, "%s\t%s\t\t\n", n.Address(), n.Name())
		for _, d := range n.Snapshot() {
			fmt.Fprintf(w, "\t%s\t%s\tuom %d\n", d.Name, humanize.FtoaWithDigits(d.Value, 2), d.UOM)
		}
	}
	w.Flush()
}
