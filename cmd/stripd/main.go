package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/catalogtools/stripd/pkg/config"
	"github.com/catalogtools/stripd/pkg/fetch"
	"github.com/catalogtools/stripd/pkg/fetch/middleware"
	"github.com/catalogtools/stripd/pkg/http/daemon"
	"github.com/catalogtools/stripd/pkg/imagecache"
	"github.com/catalogtools/stripd/pkg/imagecache/memcached"
	"github.com/catalogtools/stripd/pkg/session"
)

var version = "unversioned"

func main() {
	// Flag domain.
	fs := pflag.NewFlagSet("default", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "DESCRIPTION\n")
		fmt.Fprintf(os.Stderr, "  stripd serves a catalog file for editing the image strip of each row.\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		fs.PrintDefaults()
	}

	var (
		configFile   = fs.String("config-file", "", "path to a YAML file with configuration; flags given on the command line take precedence")
		versionFlag  = fs.Bool("version", false, "get version number")
		flagValues   = config.Default()
		flagBindings = defineConfigFlags(fs, &flagValues, func(err error) {
			fmt.Fprintf(os.Stderr, "error defining flags: %s\n", err)
			os.Exit(1)
		})
	)

	err := fs.Parse(os.Args[1:])
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "error parsing flags: %s\n", err)
		fs.Usage()
		os.Exit(2)
	case len(fs.Args()) > 0:
		fmt.Fprintf(os.Stderr, "error parsing flags: unexpected arguments %v\n", fs.Args())
		fs.Usage()
		os.Exit(2)
	}

	if *versionFlag {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		fileCfg, err := config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		if cfg, err = config.Merge(cfg, fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
	}
	flagBindings.apply(&cfg)
	if err := cfg.IsValid(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %s\n", err)
		os.Exit(1)
	}

	// Logger domain.
	var logger log.Logger
	{
		switch cfg.LogFormat {
		case "json":
			logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		default:
			logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		}
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	logger.Log("version", version)

	// Image cache component.
	var cacheClient imagecache.Client
	{
		logger := log.With(logger, "component", "cache", "backend", cfg.CacheBackend)
		switch cfg.CacheBackend {
		case config.CacheMemcached:
			memcacheConfig := memcached.MemcacheConfig{
				Host:           cfg.MemcachedHostname,
				Service:        cfg.MemcachedService,
				Timeout:        cfg.CacheTimeout,
				UpdateInterval: 1 * time.Minute,
				Logger:         logger,
				MaxIdleConns:   cfg.ResolveBurst,
			}
			var mc *memcached.MemcacheClient
			// if no service name is given, use the hostname and port
			// as given; otherwise discover servers with SRV records.
			if cfg.MemcachedService == "" {
				addr := net.JoinHostPort(cfg.MemcachedHostname, strconv.Itoa(cfg.MemcachedPort))
				mc = memcached.NewFixedServerMemcacheClient(memcacheConfig, addr)
			} else {
				mc = memcached.NewMemcacheClient(memcacheConfig)
			}
			defer mc.Stop()
			cacheClient = mc
		case config.CacheRedis:
			rc := imagecache.NewRedisClient(imagecache.RedisConfig{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Prefix:   cfg.RedisPrefix,
				Timeout:  cfg.CacheTimeout,
				MaxConns: cfg.ResolveBurst,
				Logger:   logger,
			})
			defer rc.Stop()
			cacheClient = rc
		case config.CacheMinio:
			mc, err := imagecache.NewMinioClient(imagecache.MinioConfig{
				Endpoint:  cfg.MinioEndpoint,
				AccessKey: cfg.MinioAccessKey,
				SecretKey: cfg.MinioSecretKey,
				Secure:    cfg.MinioSecure,
				Bucket:    cfg.MinioBucket,
				Prefix:    cfg.MinioPrefix,
				Timeout:   cfg.CacheTimeout,
				Logger:    logger,
			})
			if err != nil {
				logger.Log("err", err)
				os.Exit(1)
			}
			cacheClient = mc
		default:
			cacheClient = imagecache.NewDiskClient(cfg.CacheDir, logger)
		}
		cacheClient = imagecache.InstrumentClient(cfg.CacheBackend, cacheClient)
		logger.Log("ready", true)
	}

	// Image resolver component.
	var resolver *imagecache.Resolver
	{
		logger := log.With(logger, "component", "fetch")
		limiters := &middleware.RateLimiters{
			RPS:    cfg.FetchRPS,
			Burst:  cfg.FetchBurst,
			Logger: logger,
		}
		client := &http.Client{
			Transport: limiters.RoundTripper(http.DefaultTransport),
			Timeout:   cfg.FetchTimeout,
		}
		resolver = imagecache.NewResolver(imagecache.ResolverConfig{
			Cache:   cacheClient,
			HTTP:    client,
			Fetch:   fetch.Fetch,
			Burst:   cfg.ResolveBurst,
			Timeout: cfg.FetchTimeout + 2*cfg.CacheTimeout,
			Logger:  logger,
		})
	}

	// Session (business logic) domain.
	var s *session.Session
	{
		logger := log.With(logger, "component", "session")
		s = session.New(session.Config{
			Path:          cfg.TablePath,
			TableDir:      cfg.TableDir,
			Table:         cfg.TableOptions(),
			PageSize:      cfg.PageSize,
			DisplayColumn: cfg.DisplayColumn,
			Version:       version,
		}, resolver, logger)
		// A table that cannot be loaded is reported, and the
		// daemon carries on so it can be loaded later.
		if cfg.TablePath != "" {
			if _, err := s.Load(context.Background(), cfg.TablePath); err != nil {
				logger.Log("err", errors.Wrap(err, "loading table at startup"))
			}
		}
	}

	// Mechanical stuff.
	errc := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	// Transport domain.
	go func() {
		logger := log.With(logger, "transport", "HTTP")
		logger.Log("addr", cfg.Listen)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/", daemon.NewHandler(s, daemon.NewRouter()))
		errc <- http.ListenAndServe(cfg.Listen, mux)
	}()

	// Go!
	logger.Log("exit", <-errc)
}
