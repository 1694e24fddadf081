package calsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	logger "log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
	"github.com/gorilla/mux"
)

// defaultHttpHandler simple default http handler for default route
type defaultHttpHandler struct {
}

// ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

// calendarHandler holds data needed to respond and log calendar requests
type calendarHandler struct {
	log    *logger.Logger
	source calendar.Source
	cache  *atomCache
}

// makeCalendarHandler calendarHandler factory
func makeCalendarHandler(log *logger.Logger, cache *atomCache) *calendarHandler {
	return &calendarHandler{
		log:    log,
		source: calendar.Induce(cache),
		cache:  cache,
	}
}

// BusinessDayResponse answers /calendar/{expr}/businessday
type BusinessDayResponse struct {
	Calendar    string     `json:"calendar"`
	Date        civil.Date `json:"date"`
	BusinessDay bool       `json:"business_day"`
}

// AdjustResponse answers /calendar/{expr}/adjust
type AdjustResponse struct {
	Calendar string              `json:"calendar"`
	Date     civil.Date          `json:"date"`
	Rule     calendar.HolidayAdj `json:"rule"`
	Adjusted civil.Date          `json:"adjusted"`
}

// CountResponse answers /calendar/{expr}/count
type CountResponse struct {
	Calendar string     `json:"calendar"`
	From     civil.Date `json:"from"`
	To       civil.Date `json:"to"`
	Count    int        `json:"count"`
}

// AddResponse answers /calendar/{expr}/add
type AddResponse struct {
	Calendar string     `json:"calendar"`
	Date     civil.Date `json:"date"`
	Days     int        `json:"days"`
	Result   civil.Date `json:"result"`
}

// HolidaysResponse answers /calendar/{expr}/holidays
type HolidaysResponse struct {
	Calendar string       `json:"calendar"`
	From     civil.Date   `json:"from"`
	To       civil.Date   `json:"to"`
	Holidays []civil.Date `json:"holidays"`
}

// errorResponse is written with every failed request
type errorResponse struct {
	Error string `json:"error"`
}

// badRequestError marks errors in request parameters
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return e.err.Error()
}

func (e *badRequestError) Unwrap() error {
	return e.err
}

// resolve parses the {expr} path variable and resolves it
func (h *calendarHandler) resolve(r *http.Request) (calexpr.Expr, *calendar.Calendar, error) {
	expr, err := calexpr.Parse(mux.Vars(r)["expr"])
	if err != nil {
		return nil, nil, err
	}
	cal, err := h.source.Calendar(expr)
	if err != nil {
		return nil, nil, err
	}
	return expr, cal, nil
}

func (h *calendarHandler) serveCalendar(w http.ResponseWriter, r *http.Request) {
	_, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, cal)
}

func (h *calendarHandler) serveBusinessDay(w http.ResponseWriter, r *http.Request) {
	expr, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := dateParameter(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	open, err := cal.IsBusinessDay(d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, &BusinessDayResponse{Calendar: expr.String(), Date: d, BusinessDay: open})
}

func (h *calendarHandler) serveAdjust(w http.ResponseWriter, r *http.Request) {
	expr, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := dateParameter(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rule, err := ruleParameter(r, "rule")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	adjusted, err := rule.Adjust(d, cal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, &AdjustResponse{Calendar: expr.String(), Date: d, Rule: rule, Adjusted: adjusted})
}

func (h *calendarHandler) serveCount(w http.ResponseWriter, r *http.Request) {
	expr, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	from, err := dateParameter(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := dateParameter(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count, err := cal.BusinessDayCount(from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, &CountResponse{Calendar: expr.String(), From: from, To: to, Count: count})
}

func (h *calendarHandler) serveAdd(w http.ResponseWriter, r *http.Request) {
	expr, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := dateParameter(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	days, err := intParameter(r, "days")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := cal.AddBusinessDays(d, days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, &AddResponse{Calendar: expr.String(), Date: d, Days: days, Result: result})
}

func (h *calendarHandler) serveHolidays(w http.ResponseWriter, r *http.Request) {
	expr, cal, err := h.resolve(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	from, err := dateParameter(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := dateParameter(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	holidays, err := cal.Holidays(from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if holidays == nil {
		holidays = []civil.Date{}
	}
	h.writeJSON(w, &HolidaysResponse{Calendar: expr.String(), From: from, To: to, Holidays: holidays})
}

// serveCached lists the market calendars currently cached
func (h *calendarHandler) serveCached(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, h.cache.atomNames())
}

func dateParameter(r *http.Request, name string) (civil.Date, error) {
	value := r.FormValue(name)
	if len(value) == 0 {
		return civil.Date{}, &badRequestError{fmt.Errorf("missing parameter %s", name)}
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, &badRequestError{fmt.Errorf("parameter %s: %w", name, err)}
	}
	return d, nil
}

func intParameter(r *http.Request, name string) (int, error) {
	value := r.FormValue(name)
	if len(value) == 0 {
		return 0, &badRequestError{fmt.Errorf("missing parameter %s", name)}
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, &badRequestError{fmt.Errorf("parameter %s: %w", name, err)}
	}
	return result, nil
}

// ruleParameter reads a HolidayAdj, following when absent
func ruleParameter(r *http.Request, name string) (calendar.HolidayAdj, error) {
	value := r.FormValue(name)
	if len(value) == 0 {
		return calendar.Following, nil
	}
	rule, err := calendar.ParseHolidayAdj(value)
	if err != nil {
		return rule, &badRequestError{err}
	}
	return rule, nil
}

// statusCode maps calendar errors to the http status returned to the client
func statusCode(err error) int {
	var badRequest *badRequestError
	switch {
	case errors.As(err, &badRequest), errors.Is(err, calexpr.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, calendar.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, calendar.ErrOutOfRange), errors.Is(err, calendar.ErrMerge),
		errors.Is(err, calendar.ErrConstruction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *calendarHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		h.log.Printf("Error serving %s: %v", r.URL.Path, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jsonData, _ := json.Marshal(errorResponse{Error: err.Error()})
	if _, err = w.Write(jsonData); err != nil {
		h.log.Printf("Error writing json error response: %s", err)
	}
}

func (h *calendarHandler) writeJSON(w http.ResponseWriter, value interface{}) {
	jsonData, err := json.Marshal(value)
	if err != nil {
		h.log.Printf("Error marshaling response to json: error:%v\n", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(jsonData); err != nil {
		h.log.Printf("Error writing json response: %s", err)
	}
}

// createRouter routes calendar requests to calendarHandler
func createRouter(log *logger.Logger, cache *atomCache) *mux.Router {
	h := makeCalendarHandler(log, cache)

	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})
	r.HandleFunc("/calendars/cached", h.serveCached).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}", h.serveCalendar).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}/businessday", h.serveBusinessDay).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}/adjust", h.serveAdjust).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}/count", h.serveCount).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}/add", h.serveAdd).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{expr}/holidays", h.serveHolidays).Methods(http.MethodGet)
	return r
}

// createServer creates configured http.Server for responding to calendar requests
func createServer(log *logger.Logger, cache *atomCache, httpPort int) *http.Server {
	srv := &http.Server{
		Addr:         strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      createRouter(log, cache),
	}
	return srv
}

// runWebService starts up calendar web service, and terminates on shutdown signal
func runWebService(log *logger.Logger,
	wg *sync.WaitGroup,
	cache *atomCache,
	httpPort int,
	shutdownSignal chan bool,
) {
	defer wg.Done()
	srv := createServer(log, cache, httpPort)
	log.Printf("Starting server on port %d", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}
