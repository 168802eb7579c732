package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/climatesphere/internal/domain"
	"github.com/couchcryptid/climatesphere/internal/pipeline"
)

// API serves the simulation, session, and analysis endpoints.
type API struct {
	sim          *pipeline.Simulator
	store        *pipeline.Store
	health       domain.HealthChecker
	defaultYears int
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewAPI creates the API handlers. health may be nil when the ML API is
// disabled.
func NewAPI(sim *pipeline.Simulator, store *pipeline.Store, health domain.HealthChecker, defaultYears int, logger *slog.Logger) *API {
	return &API{
		sim:          sim,
		store:        store,
		health:       health,
		defaultYears: defaultYears,
		validate:     newValidator(),
		logger:       logger,
	}
}

// Routes mounts the API on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/regions", a.listRegions)
	r.Get("/regions/{id}", a.getRegion)
	r.Get("/targets", a.listTargets)
	r.Get("/sliders/{slider}", a.getSlider)

	r.Post("/simulations", a.simulate)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", a.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getSession)
			r.Delete("/", a.deleteSession)
			r.Put("/target", a.setTarget)
			r.Put("/region", a.setRegion)
			r.Put("/years", a.setYears)
			r.Put("/sliders/{slider}", a.setSlider)
			r.Post("/run", a.runSession)
			r.Get("/result", a.sessionResult)
			r.Get("/export", a.exportSession)
		})
	})

	r.Post("/prediction", a.predict)
	r.Post("/analysis", a.analyze)
	r.Get("/insights", a.insights)
	r.Get("/ml/status", a.mlStatus)
}

// --- regions & targets ---

type regionResponse struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Country  string              `json:"country"`
	Known    bool                `json:"known"`
	Baseline domain.ClimateState `json:"baseline"`
}

func (a *API) listRegions(w http.ResponseWriter, _ *http.Request) {
	regions := a.sim.Regions().Regions()
	out := make([]regionResponse, 0, len(regions))
	for _, reg := range regions {
		out = append(out, regionResponse{ID: reg.ID, Name: reg.Name, Country: reg.Country, Known: true, Baseline: reg.Baseline})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": out,
		"default": a.sim.Regions().Lookup(""),
	})
}

func (a *API) getRegion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	table := a.sim.Regions()
	reg, known := table.Region(id)
	if !known {
		reg = domain.Region{ID: id, Baseline: table.Lookup(id)}
	}
	writeJSON(w, http.StatusOK, regionResponse{ID: reg.ID, Name: reg.Name, Country: reg.Country, Known: known, Baseline: reg.Baseline})
}

type targetResponse struct {
	ID      domain.TargetVariable `json:"id"`
	Unit    string                `json:"unit"`
	Sliders []domain.SliderDef    `json:"sliders"`
}

func (a *API) listTargets(w http.ResponseWriter, _ *http.Request) {
	out := make([]targetResponse, 0, len(domain.Targets))
	for _, t := range domain.Targets {
		out = append(out, targetResponse{ID: t, Unit: domain.UnitOf(t), Sliders: domain.SlidersFor(t)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getSlider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "slider")
	def, ok := domain.Slider(domain.SliderKind(id))
	if !ok {
		writeError(w, &apiError{status: http.StatusNotFound, code: "unknown_slider", message: "unknown slider " + id})
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// horizonYears resolves a projection horizon given in years or months.
// Fractional and monthly horizons round up to whole years. years wins when
// both are set; def applies when neither is.
func horizonYears(years *float64, months *int, def int) int {
	switch {
	case years != nil:
		return domain.YearsFromFloat(*years)
	case months != nil:
		return domain.YearsFromMonths(*months)
	}
	return def
}

// --- stateless simulation ---

type simulationRequest struct {
	Region  string             `json:"region" validate:"max=64"`
	Target  string             `json:"target" validate:"max=32"`
	Sliders map[string]float64 `json:"sliders"`
	Years   *float64           `json:"years" validate:"omitempty,gte=0,lte=100"`
	Months  *int               `json:"months" validate:"omitempty,gte=0,lte=1200"`
	Seed    *uint64            `json:"seed"`
}

func (a *API) simulate(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sel, err := domain.NewSelection(domain.NormalizeTarget(req.Target), req.Sliders)
	if err != nil {
		writeError(w, sliderError(err))
		return
	}

	years := horizonYears(req.Years, req.Months, a.defaultYears)
	seed := pipeline.NewSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	sim, err := a.sim.Run(r.Context(), domain.ScenarioInput{
		RegionID:  req.Region,
		Selection: sel,
		Years:     years,
		Seed:      seed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// --- sessions ---

type createSessionRequest struct {
	Region string   `json:"region" validate:"max=64"`
	Target string   `json:"target" validate:"max=32"`
	Years  *float64 `json:"years" validate:"omitempty,gte=0,lte=100"`
	Months *int     `json:"months" validate:"omitempty,gte=0,lte=1200"`
	Seed   *uint64  `json:"seed"`
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := a.decodeAndValidate(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	params := pipeline.NewSessionParams{
		Region: req.Region,
		Target: domain.NormalizeTarget(req.Target),
		Years:  horizonYears(req.Years, req.Months, 0),
		Seed:   req.Seed,
	}
	sess := a.store.Create(params)
	writeJSON(w, http.StatusCreated, sess.State())
}

func (a *API) session(w http.ResponseWriter, r *http.Request) (*pipeline.Session, bool) {
	sess, err := a.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, sessionError(err))
		return nil, false
	}
	return sess, true
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (a *API) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, sessionError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type targetRequest struct {
	Target string `json:"target" validate:"required,max=32"`
}

func (a *API) setTarget(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req targetRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.accepted(w, sess, sess.SetTarget(domain.NormalizeTarget(req.Target)))
}

type regionRequest struct {
	Region string `json:"region" validate:"max=64"`
}

func (a *API) setRegion(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req regionRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.accepted(w, sess, sess.SetRegion(req.Region))
}

type yearsRequest struct {
	Years  *float64 `json:"years" validate:"omitempty,gte=0,lte=100"`
	Months *int     `json:"months" validate:"omitempty,gte=0,lte=1200"`
}

func (a *API) setYears(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req yearsRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Years == nil && req.Months == nil {
		writeError(w, badRequest("validation_failed", "years or months is required"))
		return
	}
	a.accepted(w, sess, sess.SetYears(horizonYears(req.Years, req.Months, 0)))
}

type sliderRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

func (a *API) setSlider(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req sliderRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.accepted(w, sess, sess.SetSlider(chi.URLParam(r, "slider"), *req.Value))
}

// accepted answers an edit that scheduled a debounced run.
func (a *API) accepted(w http.ResponseWriter, sess *pipeline.Session, err error) {
	if err != nil {
		writeError(w, sliderError(sessionError(err)))
		return
	}
	writeJSON(w, http.StatusAccepted, sess.State())
}

func (a *API) runSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	sim, err := sess.Run(r.Context())
	if err != nil {
		writeError(w, sessionError(err))
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (a *API) sessionResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	sim, ok := sess.Result()
	if !ok {
		writeError(w, &apiError{status: http.StatusNotFound, code: "no_result", message: "session has no completed simulation"})
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (a *API) exportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	format, err := domain.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, badRequest("invalid_format", "%v", err))
		return
	}
	sim, ok := sess.Result()
	if !ok {
		writeError(w, &apiError{status: http.StatusNotFound, code: "no_result", message: "session has no completed simulation"})
		return
	}

	var buf bytes.Buffer
	if err := domain.Export(&buf, sim, format); err != nil {
		a.logger.Error("export failed", "session", sess.ID(), "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="climatesphere-`+sim.ID+`.`+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// --- prediction, analysis, insights ---

type predictionRequest struct {
	Temperature *float64 `json:"temperature" validate:"required"`
	Rainfall    *float64 `json:"rainfall" validate:"required"`
	Humidity    *float64 `json:"humidity" validate:"required"`
	CO2Level    *float64 `json:"co2_level" validate:"required"`
}

type riskResponse struct {
	Risk     domain.RiskTriple `json:"risk"`
	Levels   domain.RiskLevels `json:"levels"`
	Source   domain.RiskSource `json:"source"`
	MLStatus string            `json:"mlStatus"`
}

func (a *API) predict(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	state := domain.ClimateState{
		Temperature: *req.Temperature,
		Rainfall:    *req.Rainfall,
		Humidity:    *req.Humidity,
		CO2Level:    *req.CO2Level,
	}.Clamp()

	writeJSON(w, http.StatusOK, a.baseRisk(r.Context(), state))
}

// baseRisk is the remote prediction for state, or the local fallback.
func (a *API) baseRisk(ctx context.Context, state domain.ClimateState) riskResponse {
	remote, status := domain.RemoteRisk(ctx, a.sim.Predictor(), state, a.sim.Timeout(), a.logger)
	source := domain.RiskSourceFallback
	if remote != nil {
		source = domain.RiskSourceRemote
	}
	risk := domain.Aggregate(remote, domain.Selection{}, state)
	return riskResponse{Risk: risk, Levels: risk.Levels(), Source: source, MLStatus: status}
}

type analysisRequest struct {
	Values []float64 `json:"values" validate:"required,min=1,max=10000"`
}

func (a *API) analyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := a.decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Describe(req.Values))
}

type insightsResponse struct {
	Region   string              `json:"region"`
	Name     string              `json:"name"`
	Known    bool                `json:"known"`
	Baseline domain.ClimateState `json:"baseline"`
	riskResponse
	Insights []domain.Insight `json:"insights"`
}

func (a *API) insights(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("region")
	table := a.sim.Regions()
	reg, known := table.Region(id)
	name := reg.Name
	if !known {
		name = "Default region"
	}
	baseline := table.Lookup(id)

	risk := a.baseRisk(r.Context(), baseline)
	writeJSON(w, http.StatusOK, insightsResponse{
		Region:       id,
		Name:         name,
		Known:        known,
		Baseline:     baseline,
		riskResponse: risk,
		Insights:     domain.Insights(name, risk.Risk),
	})
}

type mlStatusResponse struct {
	Available    bool     `json:"available"`
	Status       string   `json:"status"`
	ModelsLoaded []string `json:"models_loaded"`
}

func (a *API) mlStatus(w http.ResponseWriter, r *http.Request) {
	if a.health == nil {
		writeJSON(w, http.StatusOK, mlStatusResponse{Status: domain.MLStatusDisabled, ModelsLoaded: []string{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	h, err := a.health.Health(ctx)
	if err != nil {
		a.logger.Debug("ml health check failed", "error", err)
		writeJSON(w, http.StatusOK, mlStatusResponse{Status: domain.MLStatusOffline, ModelsLoaded: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, mlStatusResponse{Available: true, Status: domain.MLStatusOnline, ModelsLoaded: h.ModelsLoaded})
}

// --- helpers ---

func (a *API) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	if err := a.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrSessionNotFound), errors.Is(err, pipeline.ErrSessionClosed):
		return &apiError{status: http.StatusNotFound, code: "session_not_found", message: err.Error()}
	case errors.Is(err, pipeline.ErrSuperseded):
		return &apiError{status: http.StatusConflict, code: "superseded", message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &apiError{status: http.StatusServiceUnavailable, code: "cancelled", message: "request cancelled"}
	}
	return err
}

func sliderError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownSlider):
		return badRequest("unknown_slider", "%v", err)
	case errors.Is(err, domain.ErrInvalidSliderValue):
		return badRequest("invalid_slider_value", "%v", err)
	}
	return err
}
