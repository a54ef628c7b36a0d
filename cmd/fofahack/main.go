package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fofahack/internal/output"
	"fofahack/internal/search/apiclient"
	"fofahack/internal/search/model"
	"fofahack/internal/search/unified"
	"fofahack/internal/shared/config"
	"fofahack/internal/shared/logger"
	"fofahack/internal/shared/types"
	"fofahack/proxypool"
	"fofahack/proxypool/storage"
	"fofahack/proxypool/validator"
)

var (
	flagCount     = flag.Int("n", 0, "target result count (default from config: 100)")
	flagFormat    = flag.String("format", "", "output format: json, csv, txt")
	flagOutput    = flag.String("o", "", "output file name without extension")
	flagLevel     = flag.String("level", "", "output detail level: 1, 2, 3")
	flagMode      = flag.String("mode", "auto", "access mode: api, web, auto")
	flagFull      = flag.Bool("full", false, "search all historical data instead of the last year")
	flagProxy     = flag.String("proxy", "", "explicit proxy URL(s), comma separated")
	flagNoProxy   = flag.Bool("no-proxy", false, "disable the proxy pool, connect directly")
	flagSleep     = flag.Int("sleep", 0, "seconds between page requests")
	flagTimeout   = flag.Int("timeout", 0, "per request timeout in seconds")
	flagCountOnly = flag.Bool("count-only", false, "print the total hit count and exit")
	flagConfig    = flag.String("config", "fofahack.ini", "path to config file")
	flagDebug     = flag.Bool("debug", false, "debug logging")
)

func usage() {
	fmt.Fprintf(os.Stderr, `fofahack — FOFA search client with automatic API/WEB fallback

USAGE:
  fofahack [flags] '<query>'

EXAMPLES:
  fofahack 'app="Apache"'
  fofahack -n 50 -format csv 'port=80'
  fofahack -no-proxy 'title="admin"'
  fofahack -count-only 'domain="example.com"'

FLAGS:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	query := flag.Arg(0)

	cfg := types.Default()
	if err := config.LoadIni(cfg, *flagConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load config file '%s': %v\n", *flagConfig, err)
		os.Exit(1)
	}
	applyFlags(cfg)

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	format, err := output.ParseFormat(cfg.SearchConf.Format)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid output format.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searchCfg := model.SearchConfig{
		Keyword:   query,
		EndCount:  cfg.SearchConf.EndCount,
		PageSize:  cfg.SearchConf.PageSize,
		MaxPages:  cfg.SearchConf.MaxPages,
		TimeSleep: time.Duration(cfg.CommonConf.TimeSleep) * time.Second,
		Timeout:   time.Duration(cfg.CommonConf.Timeout) * time.Second,
		Mode:      model.AccessMode(*flagMode),
		Full:      *flagFull,
		Debug:     cfg.CommonConf.Debug,
	}

	if *flagCountOnly {
		runCount(ctx, searchCfg, cfg.DetectConf, query)
		return
	}

	var pool unified.Pool
	if cfg.ProxyPoolConf.Enabled {
		mgr := buildPool(ctx, cfg)
		defer mgr.Stop()
		pool = mgr
	}

	client := unified.New(searchCfg, cfg.DetectConf, cfg.SearchConf, pool)
	defer client.Close()

	results, err := client.SearchAll(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Msg("Run ended early.")
	}

	if len(results) > 0 {
		path, err := output.Write(cfg.SearchConf.OutputName, format, output.Level(cfg.SearchConf.Level), results)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write results.")
		} else {
			logger.Info().Str("path", path).Int("count", len(results)).Msg("Results written.")
		}
	}

	printStats(client.Stats(), len(results))

	if len(results) == 0 {
		os.Exit(1)
	}
}

// applyFlags overrides file configuration with command line values.
func applyFlags(cfg *types.Config) {
	if *flagCount > 0 {
		cfg.SearchConf.EndCount = *flagCount
	}
	if *flagFormat != "" {
		cfg.SearchConf.Format = *flagFormat
	}
	if *flagOutput != "" {
		cfg.SearchConf.OutputName = *flagOutput
	}
	if *flagLevel != "" {
		cfg.SearchConf.Level = *flagLevel
	}
	if *flagSleep > 0 {
		cfg.CommonConf.TimeSleep = *flagSleep
	}
	if *flagTimeout > 0 {
		cfg.CommonConf.Timeout = *flagTimeout
	}
	if *flagNoProxy {
		cfg.ProxyPoolConf.Enabled = false
	}
	if *flagDebug {
		cfg.CommonConf.Debug = true
		cfg.LogConf.Level = "debug"
	}
}

// buildPool assembles and starts the proxy pool manager.
func buildPool(ctx context.Context, cfg *types.Config) *proxypool.Manager {
	store := storage.NewFileStorage(cfg.ProxyPoolConf.PoolFile)
	v := validator.New(
		time.Duration(cfg.ProxyPoolConf.ValidationTimeoutSeconds)*time.Second,
		cfg.ProxyPoolConf.ValidationConcurrency,
		cfg.DetectConf,
	)
	mgr := proxypool.NewManager(cfg, store, v)

	if *flagProxy != "" {
		mgr.AddManual(strings.Split(*flagProxy, ","))
	}
	mgr.Start(ctx)
	return mgr
}

// runCount prints the total hit count for the query.
func runCount(ctx context.Context, cfg model.SearchConfig, detect types.DetectConf, query string) {
	client, err := apiclient.New(cfg, detect, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build API client.")
	}
	defer client.Close()

	total, err := client.Count(ctx, query)
	if err != nil {
		logger.Fatal().Err(err).Msg("Count query failed.")
	}
	fmt.Println(total)
}
