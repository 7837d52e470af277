package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/polyswarm/microengine-go/internal/config"
	"github.com/polyswarm/microengine-go/internal/engineinfo"
	"github.com/polyswarm/microengine-go/internal/log"
	"github.com/polyswarm/microengine-go/internal/metrics"
	"github.com/polyswarm/microengine-go/internal/model"
	"github.com/polyswarm/microengine-go/internal/scanalytics"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagConfigPath string // value of --config flag
	flagVerbose    bool   // value of --verbose flag

	cfg  config.Config
	sink metrics.Sink
	info *engineinfo.EngineInfo
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file to load - default is MICROENGINE_* environment only")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	// never print messages
	rootCmd.SilenceErrors = true

	// resolve config, set up logging and the metrics sink
	rootCmd.PersistentPreRunE = initEngine

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("microengine failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "microengine",
	Short:        "Instrumented harness around an external malware scanning engine",
	SilenceUsage: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "scan the given files through the instrumented engine",
	Args:  cobra.MinimumNArgs(1),
	RunE:  doScan,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides the version of the microengine harness",
	Run: func(cmd *cobra.Command, args []string) {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("microengine: version info not available")
			return
		}
		fmt.Printf("microengine: %s\n", bi.Main.Version)
		fmt.Printf("go:          %s\n", bi.GoVersion)
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:      %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:        %s\n", s.Value)
			}
		}
	},
}

func initEngine(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfigPath)
	if err != nil {
		return err
	}

	slog.SetDefault(log.New(flagVerbose))

	sink, err = metrics.Configure(cfg.StatsdAddr, cfg.Name, cfg.OSType(), cfg.PolyWork, cfg.Source)
	if err != nil {
		return err
	}

	info = engineinfo.New()
	info.Update(map[string]string{
		"name":    cfg.Name,
		"version": wrapperVersion(),
	})
	return nil
}

func wrapperVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return bi.Main.Version
}

func doScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if cfg.CmdExe == "" {
		return fmt.Errorf("no scanner command configured, set MICROENGINE_CMD_EXE")
	}

	engine := newCommandEngine(cfg.CmdExe, cfg.ScanTimeout)
	scan := scanalytics.New(sink, info, cfg.VerboseMetrics).Instrument(engine.Scan)

	var mx sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, path := range args {
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			guid := uuid.New().String()
			ctx := log.WithAttrs(ctx,
				slog.String("guid", guid),
				slog.String("path", path),
			)

			res, err := scan(ctx, guid, model.ArtifactFile, content, nil, "home")
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}

			meta := ""
			if res != nil {
				meta, _ = res.Metadata.(string)
			}
			mx.Lock()
			fmt.Printf("%s\t%s\n", path, meta)
			mx.Unlock()
			return nil
		})
	}
	return g.Wait()
}
