package calsvc

import (
	"encoding/json"
	"fmt"
	logger "log"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
	"github.com/nats-io/nats.go"
)

// AdjustRequest asks for date to be adjusted with Rule on the calendar expression Calendar.
// Rule defaults to following
type AdjustRequest struct {
	Calendar string               `json:"calendar"`
	Date     civil.Date           `json:"date"`
	Rule     *calendar.HolidayAdj `json:"rule,omitempty"`
}

// AdjustReply answers an AdjustRequest with either Date or Error
type AdjustReply struct {
	Date  *civil.Date `json:"date,omitempty"`
	Error string      `json:"error,omitempty"`
}

// runAdjustmentListener starts NATS subscription on adjustSubject for AdjustRequest messages and replies to each.
// Ends NATS subscription and returns on shutdownSignal
func runAdjustmentListener(log *logger.Logger,
	wg *sync.WaitGroup,
	natsConn *nats.Conn,
	source calendar.Source,
	adjustSubject string,
	shutdownSignal chan bool) {
	defer wg.Done()

	ch := make(chan *nats.Msg, 64)
	log.Printf("Subscribing to adjustment requests on subject:%s on nats: %v\n", adjustSubject, natsConn.Servers())
	sub, err := natsConn.ChanSubscribe(adjustSubject, ch)
	if err != nil {
		log.Printf("Unable to establish subscription to nats server: %v\n", err)
		<-shutdownSignal
		return
	}

	for {
		select {
		case msg := <-ch:
			if len(msg.Reply) == 0 {
				log.Printf("ignoring adjustment request without reply subject, payload:%s", string(msg.Data))
				continue
			}
			if err := msg.Respond(processAdjustRequest(source, msg.Data)); err != nil {
				log.Printf("Error replying to adjustment request: %v", err)
			}
		case <-shutdownSignal:
			log.Printf("ending adjustment listener on shutdown signal\n")
			unsubscribe(log, sub, adjustSubject)
			return
		}
	}
}

// processAdjustRequest decodes an AdjustRequest and returns the json encoded AdjustReply
func processAdjustRequest(source calendar.Source, data []byte) []byte {
	reply := adjust(source, data)
	jsonData, err := json.Marshal(reply)
	if err != nil {
		jsonData, _ = json.Marshal(AdjustReply{Error: err.Error()})
	}
	return jsonData
}

func adjust(source calendar.Source, data []byte) AdjustReply {
	var request AdjustRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return AdjustReply{Error: fmt.Sprintf("unable to parse request: %v", err)}
	}
	expr, err := calexpr.Parse(request.Calendar)
	if err != nil {
		return AdjustReply{Error: err.Error()}
	}
	cal, err := source.Calendar(expr)
	if err != nil {
		return AdjustReply{Error: err.Error()}
	}
	rule := calendar.Following
	if request.Rule != nil {
		rule = *request.Rule
	}
	adjusted, err := rule.Adjust(request.Date, cal)
	if err != nil {
		return AdjustReply{Error: err.Error()}
	}
	return AdjustReply{Date: &adjusted}
}

// runReloadListener starts NATS subscription on reloadSubject for marketcal.ReloadNotice messages, flushing cache on
// each. Ends NATS subscription and returns on shutdownSignal
func runReloadListener(log *logger.Logger,
	wg *sync.WaitGroup,
	natsConn *nats.Conn,
	cache *atomCache,
	reloadSubject string,
	shutdownSignal chan bool) {
	defer wg.Done()

	ch := make(chan *nats.Msg, 64)
	log.Printf("Subscribing to reload notices on subject:%s on nats: %v\n", reloadSubject, natsConn.Servers())
	sub, err := natsConn.ChanSubscribe(reloadSubject, ch)
	if err != nil {
		log.Printf("Unable to establish subscription to nats server: %v\n", err)
		<-shutdownSignal
		return
	}

	for {
		select {
		case msg := <-ch:
			processReloadFromMsg(log, msg, cache)
		case <-shutdownSignal:
			log.Printf("ending reload listener on shutdown signal\n")
			unsubscribe(log, sub, reloadSubject)
			return
		}
	}
}

// processReloadFromMsg flushes cache when msg holds a marketcal.ReloadNotice
func processReloadFromMsg(log *logger.Logger, msg *nats.Msg, cache *atomCache) {
	notice, err := marketcal.ParseReloadNotice(msg.Data)
	if err != nil {
		log.Printf("error parsing reload notice: %s, payload:%s", err, string(msg.Data))
		return
	}
	removed := cache.flush()
	log.Printf("Data set %d saved at %s, flushed %d cached calendars", notice.DataSetId,
		notice.SavedAt.Format("2006-01-02T15:04:05"), removed)
}

func unsubscribe(log *logger.Logger, sub *nats.Subscription, subject string) {
	log.Printf("unsubscribing from %s\n", subject)
	if err := sub.Unsubscribe(); err != nil {
		log.Printf("Error unsubscribing to nats:%s", err)
	}
}
