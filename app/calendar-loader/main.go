package main

import (
	"context"
	"fmt"
	logger "log"
	"os"
	"strconv"
	"time"

	"github.com/OpenTransitTools/bizcal/app/calendar-loader/calmanager"
	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
	"github.com/OpenTransitTools/bizcal/foundation/database"
	"github.com/OpenTransitTools/bizcal/foundation/httpclient"
	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "CALENDAR_LOADER : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Calendar struct {
			Url             string        `conf:"default:http://localhost:8080/calendars.zip"`
			TempDir         string        `conf:"default:calendar_tmp"`
			ForceDownload   bool          `conf:"default:false"`
			DownloadTimeout time.Duration `conf:"default:60s"`
		}
		NATS struct {
			Url           string `conf:"default:nats://localhost:4222"`
			ReloadSubject string `conf:"default:calendar-reload"`
			Disabled      bool   `conf:"default:false"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Maintain market calendar data sets in database"
	const prefix = "CALENDAR_LOADER"
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
	// Start Database

	log.Println("main: Initializing database support")

	db, err := database.Open(database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Printf("main: Database Stopping : %s", cfg.DB.Host)
		err = db.Close()
		if err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	switch cfg.Args.Num(0) {
	case "load":
		publisher := calmanager.NoopReloadPublisher()
		if !cfg.NATS.Disabled {
			natsConn, err := nats.Connect(cfg.NATS.Url, nats.Name("calendar-loader"))
			if err != nil {
				return fmt.Errorf("connecting to nats at %s: %w", cfg.NATS.Url, err)
			}
			defer natsConn.Close()
			publisher = calmanager.NewNatsReloadPublisher(natsConn, cfg.NATS.ReloadSubject)
		}
		client := httpclient.New(cfg.Calendar.DownloadTimeout)
		ds, err := calmanager.UpdateCalendars(context.Background(), log, db, client, publisher,
			cfg.Calendar.TempDir, cfg.Calendar.Url, cfg.Calendar.ForceDownload)
		if err != nil {
			return err
		}
		if ds != nil {
			log.Printf("main: Saved %v", ds)
		}
		return calmanager.ListCalendars(db)

	case "delete":
		dataSetIdString := cfg.Args.Num(1)
		if len(dataSetIdString) < 1 {
			return fmt.Errorf("expected data set id with command delete")
		}
		dataSetId, err := strconv.ParseInt(dataSetIdString, 10, 64)
		if err != nil {
			return fmt.Errorf("unable to parse data set Id %s, error: %w", dataSetIdString, err)
		}
		return calmanager.DeleteCalendars(log, db, dataSetId)

	case "list":
		return calmanager.ListCalendars(db)

	case "init":
		log.Println("main: Creating calendar tables")
		return marketcal.CreateSchema(db)

	default:
		fmt.Println("load: download and update (if needed) latest calendar data set")
		fmt.Println("delete: remove a calendar data set from the database")
		fmt.Println("list: list all calendar data sets in the database")
		fmt.Println("init: create the calendar tables if they do not exist")
		usage, err := conf.Usage(prefix, &cfg)
		if err != nil {
			return fmt.Errorf("generating config usage: %w", err)
		}
		fmt.Println(usage)
	}
	return nil
}
