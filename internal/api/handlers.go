// Package api exposes the HTTP handlers for the petwatch backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/petwatch/internal/cache"
	"example.com/petwatch/internal/domain"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	alerts   *domain.AlertService
	configs  *domain.ConfigService
	stats    *domain.StatsService
	activity domain.ActivityRepository
	cache    cache.Store
}

// NewHandler builds a Handler. A nil cache disables statistics caching.
func NewHandler(alerts *domain.AlertService, configs *domain.ConfigService, stats *domain.StatsService, activity domain.ActivityRepository, store cache.Store) *Handler {
	if store == nil {
		store = cache.Noop{}
	}
	return &Handler{
		alerts:   alerts,
		configs:  configs,
		stats:    stats,
		activity: activity,
		cache:    store,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/system_config", h.systemConfig)
	mux.HandleFunc("/system_config/reset", h.resetSystemConfig)
	mux.HandleFunc("/alerts", h.listAlerts)
	mux.HandleFunc("/alerts/mark_read", h.markAlertsRead)
	mux.HandleFunc("/alerts/mark_all_read", h.markAllAlertsRead)
	mux.HandleFunc("/alerts/delete", h.deleteAlerts)
	mux.HandleFunc("/statistics", h.statistics)
	mux.HandleFunc("/statistics/years", h.statisticsYears)
	mux.HandleFunc("/cats", h.listCats)
	mux.HandleFunc("/cat_activities", h.listActivities)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) systemConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSystemConfig(w, r)
	case http.MethodPost:
		h.updateSystemConfig(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getSystemConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetActive(r.Context())
	if err != nil {
		// A missing active record is a provisioning fault, not client error.
		writeError(w, http.StatusInternalServerError, "server_error", "error fetching system config")
		return
	}
	writeJSON(w, http.StatusOK, toConfigView(*cfg))
}

func (h *Handler) updateSystemConfig(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeConfigPatch(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	cfg, err := h.configs.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, domain.ErrActiveConfigNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "active config not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toConfigView(*cfg))
}

func (h *Handler) resetSystemConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	cfg, err := h.configs.ResetToDefault(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "error resetting system config")
		return
	}
	writeJSON(w, http.StatusOK, toConfigView(*cfg))
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	filter := domain.AlertFilter{
		Cat:         r.URL.Query().Get("cat"),
		IncludeRead: r.URL.Query().Get("include_read") != "0",
	}

	alerts, err := h.alerts.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, toAlertView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) markAlertsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	ids, ok := decodeIDs(r.Body)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "ids required")
		return
	}

	updated, err := h.alerts.MarkRead(r.Context(), ids)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid_request", "ids required")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) markAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	updated, err := h.alerts.MarkAllRead(r.Context(), r.URL.Query().Get("cat"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) deleteAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	ids, ok := decodeIDs(r.Body)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "ids required")
		return
	}

	// Delete is archival: rows are hidden from listings, never removed.
	archived, err := h.alerts.Archive(r.Context(), ids)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "invalid_request", "ids required")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": archived})
}

func (h *Handler) statisticsYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	const cacheKey = "stats:years"
	if h.serveCached(r.Context(), w, cacheKey) {
		return
	}

	years, err := h.stats.Years(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	h.writeJSONCached(r.Context(), w, cacheKey, YearsResponse{Years: years})
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	q := r.URL.Query()
	cat := q.Get("cat")
	if strings.TrimSpace(cat) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing cat")
		return
	}

	period := domain.Period(strings.ToLower(q.Get("period")))
	if period == "" {
		period = domain.PeriodDaily
	}

	params := domain.StatsParams{
		Year:      intParam(q.Get("year")),
		Month:     time.Month(intParam(q.Get("month"))),
		StartYear: intParam(q.Get("start_year")),
		EndYear:   intParam(q.Get("end_year")),
	}

	cacheKey := "stats:" + r.URL.RawQuery
	if h.serveCached(r.Context(), w, cacheKey) {
		return
	}

	series, err := h.stats.Aggregate(r.Context(), cat, period, params)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "validation_failed", "missing cat")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	h.writeJSONCached(r.Context(), w, cacheKey, toStatisticsResponse(series))
}

func (h *Handler) listCats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	cats, err := h.activity.ListCats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]CatView, 0, len(cats))
	for _, c := range cats {
		views = append(views, CatView{Name: c.Name, ImageURL: c.ImageURL, Status: c.Status, CurrentRoom: c.CurrentRoom})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	q := r.URL.Query()
	query := domain.ActivityQuery{Cat: q.Get("cat_name")}
	if raw := q.Get("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid start_date")
			return
		}
		query.StartDate = parsed
	}
	if raw := q.Get("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid end_date")
			return
		}
		query.EndDate = parsed
	}

	records, err := h.activity.ListActivities(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]ActivityRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, ActivityRecordView{
			CatName:         rec.CatName,
			ActivityType:    rec.ActivityType,
			StartTime:       rec.StartTime,
			EndTime:         rec.EndTime,
			DurationMinutes: rec.DurationMinutes,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// serveCached replays a cached statistics response body when present.
func (h *Handler) serveCached(ctx context.Context, w http.ResponseWriter, key string) bool {
	body, ok := h.cache.Get(ctx, key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return true
}

func (h *Handler) writeJSONCached(ctx context.Context, w http.ResponseWriter, key string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	h.cache.Set(ctx, key, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ConfigView is the camelCase wire shape of the threshold config.
type ConfigView struct {
	AlertNoCat   *int     `json:"alertNoCat"`
	AlertNoEat   *int     `json:"alertNoEating"`
	MinExcretion *int     `json:"minExcretion"`
	MaxExcretion *int     `json:"maxExcretion"`
	MinSleep     *float64 `json:"minSleep"`
	MaxSleep     *float64 `json:"maxSleep"`
	MaxCats      *int     `json:"maxCats"`
}

// AlertView is one row of the alerts listing.
type AlertView struct {
	ID        int64     `json:"id"`
	Cat       string    `json:"cat"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    int16     `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// YearsResponse lists the data years for the statistics dropdowns.
type YearsResponse struct {
	Years []int `json:"years"`
}

// StatisticsSeries carries the parallel value arrays for charting.
type StatisticsSeries struct {
	SleepMinutes []float64 `json:"sleepMinutes"`
	EatCount     []int     `json:"eatCount"`
	ExcreteCount []int     `json:"excreteCount"`
}

// StatisticsSummary totals the returned buckets.
type StatisticsSummary struct {
	TotalSleepHours   float64 `json:"totalSleepHours"`
	TotalEatCount     int     `json:"totalEatCount"`
	TotalExcreteCount int     `json:"totalExcreteCount"`
}

// StatisticsResponse is the /statistics payload.
type StatisticsResponse struct {
	Labels  []string          `json:"labels"`
	Series  StatisticsSeries  `json:"series"`
	Summary StatisticsSummary `json:"summary"`
}

// CatView is one roster entry with its current room.
type CatView struct {
	Name        string  `json:"name"`
	ImageURL    *string `json:"image_url"`
	Status      string  `json:"status"`
	CurrentRoom *string `json:"current_room"`
}

// ActivityRecordView is one raw activity log row.
type ActivityRecordView struct {
	CatName         string     `json:"cat_name"`
	ActivityType    string     `json:"activity_type"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
}

func toConfigView(cfg domain.SystemConfig) ConfigView {
	return ConfigView{
		AlertNoCat:   cfg.NoCatHours,
		AlertNoEat:   cfg.MinEatCount,
		MinExcretion: cfg.MinExcreteCount,
		MaxExcretion: cfg.MaxExcreteCount,
		MinSleep:     cfg.MinSleepHours,
		MaxSleep:     cfg.MaxSleepHours,
		MaxCats:      cfg.MaxSupportedCats,
	}
}

func toAlertView(a domain.Alert) AlertView {
	return AlertView{
		ID:        a.ID,
		Cat:       a.CatName,
		Type:      string(a.Type),
		Message:   a.Message,
		IsRead:    int16(a.State),
		CreatedAt: a.CreatedAt,
	}
}

func toStatisticsResponse(series domain.Series) StatisticsResponse {
	resp := StatisticsResponse{
		Labels: make([]string, 0, len(series.Points)),
		Series: StatisticsSeries{
			SleepMinutes: make([]float64, 0, len(series.Points)),
			EatCount:     make([]int, 0, len(series.Points)),
			ExcreteCount: make([]int, 0, len(series.Points)),
		},
		Summary: StatisticsSummary{
			TotalSleepHours:   series.Summary.TotalSleepHours,
			TotalEatCount:     series.Summary.TotalEatCount,
			TotalExcreteCount: series.Summary.TotalExcreteCount,
		},
	}
	for _, p := range series.Points {
		resp.Labels = append(resp.Labels, p.Label)
		resp.Series.SleepMinutes = append(resp.Series.SleepMinutes, p.SleepMinutes)
		resp.Series.EatCount = append(resp.Series.EatCount, p.EatCount)
		resp.Series.ExcreteCount = append(resp.Series.ExcreteCount, p.ExcreteCount)
	}
	return resp
}

// decodeConfigPatch reads the partial camelCase body into a sparse patch,
// distinguishing absent fields from explicit nulls.
func decodeConfigPatch(body io.Reader) (domain.ConfigPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return domain.ConfigPatch{}, err
	}

	var patch domain.ConfigPatch
	var err error
	if patch.NoCatHours, err = intField(raw, "alertNoCat"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MinEatCount, err = intField(raw, "alertNoEating"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MinExcreteCount, err = intField(raw, "minExcretion"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MaxExcreteCount, err = intField(raw, "maxExcretion"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MinSleepHours, err = floatField(raw, "minSleep"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MaxSleepHours, err = floatField(raw, "maxSleep"); err != nil {
		return domain.ConfigPatch{}, err
	}
	if patch.MaxSupportedCats, err = intField(raw, "maxCats"); err != nil {
		return domain.ConfigPatch{}, err
	}
	return patch, nil
}

func intField(raw map[string]json.RawMessage, key string) (domain.OptionalInt, error) {
	value, ok := raw[key]
	if !ok {
		return domain.OptionalInt{}, nil
	}
	var parsed *int
	if err := json.Unmarshal(value, &parsed); err != nil {
		return domain.OptionalInt{}, err
	}
	return domain.OptionalInt{Set: true, Value: parsed}, nil
}

func floatField(raw map[string]json.RawMessage, key string) (domain.OptionalFloat, error) {
	value, ok := raw[key]
	if !ok {
		return domain.OptionalFloat{}, nil
	}
	var parsed *float64
	if err := json.Unmarshal(value, &parsed); err != nil {
		return domain.OptionalFloat{}, err
	}
	return domain.OptionalFloat{Set: true, Value: parsed}, nil
}

// decodeIDs parses {"ids":[...]}; ok is false when ids is missing or empty.
func decodeIDs(body io.Reader) ([]int64, bool) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, false
	}
	if len(req.IDs) == 0 {
		return nil, false
	}
	return req.IDs, true
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
