package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenTransitTools/bizcal/app/calendar-svc/calsvc"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/holidays"
	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
	"github.com/OpenTransitTools/bizcal/foundation/database"
	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "CALENDAR_SVC : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Source struct {
			Kind     string `conf:"default:db,help:db or builtin"`
			FromYear int    `conf:"default:2020"`
			ToYear   int    `conf:"default:2030"`
		}
		DB struct {
			User         string `conf:"default:postgres"`
			Password     string `conf:"default:postgres,noprint"`
			Host         string `conf:"default:0.0.0.0"`
			Name         string `conf:"default:postgres"`
			DisableTLS   bool   `conf:"default:true"`
			MaxOpenConns int    `conf:"default:10"`
		}
		Web struct {
			Port int `conf:"default:8080"`
		}
		Cache struct {
			ExpireAfter time.Duration `conf:"default:1h"`
			CleanEvery  time.Duration `conf:"default:1m"`
		}
		NATS struct {
			Url           string `conf:"default:nats://localhost:4222"`
			AdjustSubject string `conf:"default:calendar-adjust"`
			ReloadSubject string `conf:"default:calendar-reload"`
			Disabled      bool   `conf:"default:false"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Serve business day queries on market calendars"
	const prefix = "CALENDAR_SVC"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Calendar Source

	var source calendar.AtomSource
	switch cfg.Source.Kind {
	case "db":
		log.Println("main: Initializing database support")
		db, err := database.Open(database.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			DisableTLS:   cfg.DB.DisableTLS,
			MaxOpenConns: cfg.DB.MaxOpenConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer func() {
			log.Printf("main: Database Stopping : %s", cfg.DB.Host)
			if err := db.Close(); err != nil {
				log.Printf("main: error closing database: %v", err)
			}
		}()
		if err = database.StatusCheck(db, 5*time.Second); err != nil {
			return fmt.Errorf("checking db status: %w", err)
		}
		source = marketcal.NewDBSource(db)
	case "builtin":
		builtin, err := holidays.NewSource(cfg.Source.FromYear, cfg.Source.ToYear)
		if err != nil {
			return fmt.Errorf("creating builtin holiday calendars: %w", err)
		}
		log.Printf("main: Serving builtin calendars %v", builtin.Names())
		source = builtin
	default:
		return fmt.Errorf("unknown calendar source %q, expected db or builtin", cfg.Source.Kind)
	}

	// =========================================================================
	// Start NATS

	var natsConn *nats.Conn
	if !cfg.NATS.Disabled {
		natsConn, err = nats.Connect(cfg.NATS.Url, nats.Name("calendar-svc"))
		if err != nil {
			return fmt.Errorf("connecting to nats at %s: %w", cfg.NATS.Url, err)
		}
		defer natsConn.Close()
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	calsvc.StartServices(log, source, natsConn, calsvc.Config{
		HttpPort:         cfg.Web.Port,
		CacheExpireAfter: cfg.Cache.ExpireAfter,
		CacheCleanEvery:  cfg.Cache.CleanEvery,
		AdjustSubject:    cfg.NATS.AdjustSubject,
		ReloadSubject:    cfg.NATS.ReloadSubject,
	}, shutdown)
	return nil
}
