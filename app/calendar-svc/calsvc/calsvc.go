// Package calsvc serves business day queries over http and nats, resolving calendar expressions against a cache of
// market calendars
package calsvc

import (
	logger "log"
	"os"
	"sync"
	"time"

	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/nats-io/nats.go"
)

// Config holds the settings of the services started by StartServices
type Config struct {
	HttpPort int
	// CacheExpireAfter is how long a fetched market calendar is served before it is fetched again
	CacheExpireAfter time.Duration
	// CacheCleanEvery is how often expired calendars are removed
	CacheCleanEvery time.Duration
	// AdjustSubject is the nats subject answering holiday adjustment requests, ignored without a nats connection
	AdjustSubject string
	// ReloadSubject is the nats subject on which the loader announces new data sets
	ReloadSubject string
}

// StartServices brings up backgroundLoop, webservice and, when natsConn is not nil, the nats listeners.
// Returns after all of them have shut down on shutdown signal
func StartServices(log *logger.Logger,
	source calendar.AtomSource,
	natsConn *nats.Conn,
	cfg Config,
	shutdownSignal chan os.Signal) {

	wg := sync.WaitGroup{}

	//create shared cache
	cache := makeAtomCache(source)

	//create shutdown channels
	var shutdownChannels []chan bool
	makeShutdownChannel := func() chan bool {
		ch := make(chan bool, 1)
		shutdownChannels = append(shutdownChannels, ch)
		return ch
	}

	//start all child services
	wg.Add(2)
	go runBackgroundLoop(log, &wg, cache, makeShutdownChannel(), cfg.CacheCleanEvery, cfg.CacheExpireAfter)
	go runWebService(log, &wg, cache, cfg.HttpPort, makeShutdownChannel())
	if natsConn != nil {
		wg.Add(2)
		go runAdjustmentListener(log, &wg, natsConn, calendar.Induce(cache), cfg.AdjustSubject, makeShutdownChannel())
		go runReloadListener(log, &wg, natsConn, cache, cfg.ReloadSubject, makeShutdownChannel())
	} else {
		log.Printf("No nats connection, not listening for adjustment requests or reload notices")
	}

	<-shutdownSignal
	log.Printf("Exiting on shutdown signal, shutting down subroutines")
	for _, ch := range shutdownChannels {
		ch <- true
	}
	wg.Wait()
	log.Printf("Subroutines shut down, exiting calendar service")
}

// runBackgroundLoop frequently removes expired calendars from cache
func runBackgroundLoop(log *logger.Logger,
	wg *sync.WaitGroup,
	cache *atomCache,
	shutdownSignal chan bool,
	loopDuration time.Duration,
	expireAfter time.Duration) {
	defer wg.Done()

	for {
		select {
		case <-shutdownSignal:
			log.Printf("Exiting background loop on shutdown signal")
			return
		case <-time.After(loopDuration):
		}

		removed, currentSize := cache.expireAtoms(time.Now(), expireAfter)
		if removed > 0 {
			log.Printf("Calendar cache has %d calendars. Removed %d expired calendars", currentSize, removed)
		}
	}
}
