// Package handler serves the scenario engine and the workshop store over
// HTTP with fasthttp.
package handler

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"capitation-engine/internal/engine"
	"capitation-engine/internal/export"
	"capitation-engine/internal/jsonpatch"
	"capitation-engine/internal/model"
	"capitation-engine/internal/presets"
	"capitation-engine/internal/rules"
	"capitation-engine/internal/store"
)

const maxLeaderboard = 100

type Handler struct {
	rules           *rules.Registry
	store           store.Store
	adminHash       []byte
	leaderboardSize int
	log             zerolog.Logger
	now             func() time.Time
	routes          map[string][]route
}

func New(reg *rules.Registry, st store.Store, adminHash []byte, leaderboardSize int, log zerolog.Logger) *Handler {
	h := &Handler{
		rules:           reg,
		store:           st,
		adminHash:       adminHash,
		leaderboardSize: leaderboardSize,
		log:             log.With().Str("component", "http").Logger(),
		now:             time.Now,
	}
	h.routes = h.routeTable()
	return h
}

type route struct {
	method string
	fn     func(ctx *fasthttp.RequestCtx)
}

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	routes := h.routes[string(ctx.Path())]
	if len(routes) == 0 {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return
	}
	for _, r := range routes {
		if string(ctx.Method()) == r.method {
			r.fn(ctx)
			return
		}
	}
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
}

func (h *Handler) routeTable() map[string][]route {
	return map[string][]route{
		"/health":           {{fasthttp.MethodGet, h.health}},
		"/api/profiles":     {{fasthttp.MethodGet, h.listProfiles}},
		"/api/professions":  {{fasthttp.MethodGet, h.listProfessions}},
		"/api/presets":      {{fasthttp.MethodGet, h.listPresets}},
		"/api/evaluate":     {{fasthttp.MethodPost, h.evaluate}},
		"/api/compare":      {{fasthttp.MethodPost, h.compare}},
		"/api/summary":      {{fasthttp.MethodPost, h.summary}},
		"/api/submissions":  {{fasthttp.MethodPost, h.submit}},
		"/api/leaderboard":  {{fasthttp.MethodGet, h.leaderboard}},
		"/api/votes":        {{fasthttp.MethodPost, h.castVote}, {fasthttp.MethodGet, h.voteTallies}},
		"/api/admin/export": {{fasthttp.MethodGet, h.adminExport}},
	}
}

func (h *Handler) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

type profileSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) listProfiles(ctx *fasthttp.RequestCtx) {
	var list []profileSummary
	for _, name := range h.rules.Names() {
		p, _ := h.rules.Get(name)
		list = append(list, profileSummary{Name: p.Name, Description: p.Description})
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"default":  h.rules.DefaultName(),
		"profiles": list,
	})
}

type professionInfo struct {
	Role     model.Role `json:"role"`
	Clinical bool       `json:"clinical"`
	rules.RoleProfile
}

func (h *Handler) listProfessions(ctx *fasthttp.RequestCtx) {
	p, ok := h.profile(ctx)
	if !ok {
		return
	}
	list := make([]professionInfo, 0, len(model.Roles))
	for _, role := range model.Roles {
		list = append(list, professionInfo{Role: role, Clinical: role.Clinical(), RoleProfile: p.Role(role)})
	}
	writeJSON(ctx, fasthttp.StatusOK, list)
}

func (h *Handler) listPresets(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, presets.All())
}

func (h *Handler) evaluate(ctx *fasthttp.RequestCtx) {
	p, ok := h.profile(ctx)
	if !ok {
		return
	}
	var req model.ScenarioRequest
	if !decodeBody(ctx, &req) {
		return
	}
	in, err := buildInput(p, req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	resp := engine.Process(in, p)
	h.logWarnings(resp)
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) compare(ctx *fasthttp.RequestCtx) {
	p, ok := h.profile(ctx)
	if !ok {
		return
	}
	var req model.CompareRequest
	if !decodeBody(ctx, &req) {
		return
	}
	base, err := buildInput(p, req.Baseline)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "baseline: "+err.Error())
		return
	}
	cand, err := buildInput(p, req.Candidate)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "candidate: "+err.Error())
		return
	}

	resp := model.CompareResponse{
		Baseline:  *engine.Process(base, p),
		Candidate: *engine.Process(cand, p),
	}
	resp.Patch, resp.Revert, err = jsonpatch.Between(resp.Baseline.Result, resp.Candidate.Result)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to diff scenarios")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to compare scenarios")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) summary(ctx *fasthttp.RequestCtx) {
	p, ok := h.profile(ctx)
	if !ok {
		return
	}
	var req model.ScenarioRequest
	if !decodeBody(ctx, &req) {
		return
	}
	in, err := buildInput(p, req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	res := engine.Evaluate(in, p)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(export.Summary(p, req.Name, res, h.now()))
}

type submissionResponse struct {
	ID     string            `json:"id"`
	Record export.Record     `json:"record"`
	Score  model.ScoreResult `json:"score"`
}

func (h *Handler) submit(ctx *fasthttp.RequestCtx) {
	p, ok := h.profile(ctx)
	if !ok {
		return
	}
	var req model.ScenarioRequest
	if !decodeBody(ctx, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "name is required")
		return
	}
	in, err := buildInput(p, req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	res := engine.Evaluate(in, p)
	sub := store.Submission{
		ID:      uuid.New().String(),
		Profile: p.Name,
		Record:  export.FromResult(req.Name, res, h.now()),
	}
	if err := h.store.AppendSubmission(sub); err != nil {
		h.log.Error().Err(err).Msg("Failed to store submission")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to store submission")
		return
	}

	h.log.Info().Str("id", sub.ID).Str("profile", p.Name).Float64("score", sub.ValueScore).Msg("Submission received")
	writeJSON(ctx, fasthttp.StatusCreated, submissionResponse{ID: sub.ID, Record: sub.Record, Score: res.Score})
}

func (h *Handler) leaderboard(ctx *fasthttp.RequestCtx) {
	limit := h.leaderboardSize
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		n, err := strconv.Atoi(string(raw))
		if err != nil || n < 1 || n > maxLeaderboard {
			writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxLeaderboard))
			return
		}
		limit = n
	}

	entries, err := h.store.Leaderboard(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load leaderboard")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	stats, err := h.store.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load submission stats")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"entries": entries,
		"stats":   stats,
	})
}

func (h *Handler) castVote(ctx *fasthttp.RequestCtx) {
	var req model.VoteRequest
	if !decodeBody(ctx, &req) {
		return
	}
	if err := h.store.CastVote(req.Option); err != nil {
		if errors.Is(err, store.ErrUnknownVoteOption) {
			writeError(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to record vote")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to record vote")
		return
	}
	h.voteTallies(ctx)
}

func (h *Handler) voteTallies(ctx *fasthttp.RequestCtx) {
	tallies, err := h.store.VoteTallies()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load votes")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to load votes")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, tallies)
}

func (h *Handler) adminExport(ctx *fasthttp.RequestCtx) {
	password := ctx.Request.Header.Peek("X-Admin-Password")
	if len(password) == 0 || bcrypt.CompareHashAndPassword(h.adminHash, password) != nil {
		h.log.Warn().Str("remote", ctx.RemoteIP().String()).Msg("Rejected admin export")
		writeError(ctx, fasthttp.StatusUnauthorized, "Invalid admin password")
		return
	}

	format := string(ctx.QueryArgs().Peek("format"))
	if format == "" {
		format = export.FormatCSV
	}
	contentType, ok := export.ContentType(format)
	if !ok {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
		return
	}

	subs, err := h.store.ListSubmissions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list submissions")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to export submissions")
		return
	}
	records := make([]export.Record, len(subs))
	for i, s := range subs {
		records[i] = s.Record
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode export")
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to export submissions")
		return
	}

	filename := fmt.Sprintf("submissions_%s.%s", h.now().UTC().Format("20060102_1504"), format)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.SetBody(buf.Bytes())
}

// profile resolves ?profile=, writing a 400 when it is unknown.
func (h *Handler) profile(ctx *fasthttp.RequestCtx) (*rules.Profile, bool) {
	name := string(ctx.QueryArgs().Peek("profile"))
	p, ok := h.rules.Get(name)
	if !ok {
		writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("unknown rule profile %q", name))
		return nil, false
	}
	return p, true
}

func (h *Handler) logWarnings(resp *model.EvaluationResponse) {
	for _, m := range resp.Result.Messages {
		if m.Code == model.CodeEqualSplitFallback {
			h.log.Warn().
				Str("calculation_id", resp.CalculationMetadata.CalculationID).
				Str("code", m.Code).
				Msg(m.Message)
		}
	}
}

// buildInput layers a scenario: profile defaults for the profession, then
// the preset, then the caller's fields. A team in the scenario replaces the
// earlier team wholesale; CTC entries merge key by key.
func buildInput(p *rules.Profile, req model.ScenarioRequest) (model.ScenarioInput, error) {
	var head struct {
		Profession model.Role         `json:"profession"`
		Team       stdjson.RawMessage `json:"team"`
	}
	if len(req.Scenario) > 0 {
		if err := stdjson.Unmarshal(req.Scenario, &head); err != nil {
			return model.ScenarioInput{}, fmt.Errorf("invalid scenario: %v", err)
		}
		if head.Profession != "" && !head.Profession.Clinical() {
			return model.ScenarioInput{}, fmt.Errorf("unknown profession %q", head.Profession)
		}
	}

	in := engine.DefaultInput(p, head.Profession)
	if req.Preset != "" {
		preset, ok := presets.Get(req.Preset)
		if !ok {
			return model.ScenarioInput{}, fmt.Errorf("unknown preset %q", req.Preset)
		}
		preset.Apply(&in)
	}

	if len(req.Scenario) > 0 {
		if head.Team != nil {
			in.Team = nil
		}
		dec := stdjson.NewDecoder(bytes.NewReader(req.Scenario))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return model.ScenarioInput{}, fmt.Errorf("invalid scenario: %v", err)
		}
	}
	return in, nil
}

func decodeBody(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Failed to encode response")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
