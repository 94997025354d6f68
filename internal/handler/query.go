package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chessmate/chessmate/internal/domain"
	"github.com/chessmate/chessmate/internal/hybrid"
	"github.com/chessmate/chessmate/internal/intent"
	"github.com/chessmate/chessmate/internal/reliability"
	"github.com/chessmate/chessmate/pkg/telemetry"
)

// QueryRequest is the POST /query body (spec §6 HTTP API).
type QueryRequest struct {
	Question string `json:"question"`
	Limit    *int   `json:"limit,omitempty"`
	Offset   *int   `json:"offset,omitempty"`
	AsJSON   bool   `json:"as_json,omitempty"`
}

// QueryResponse is the full /query success body.
type QueryResponse struct {
	Question   string       `json:"question"`
	Plan       planView     `json:"plan"`
	Results    []resultView `json:"results"`
	Pagination paginationView `json:"pagination"`
	Warnings   []string     `json:"warnings"`
	Agent      agentView    `json:"agent"`
}

type planView struct {
	Keywords []string            `json:"keywords"`
	Filters  map[string]string   `json:"filters"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

type resultView struct {
	GameID           int64    `json:"game_id"`
	White            string   `json:"white"`
	Black            string   `json:"black"`
	Result           *string  `json:"result,omitempty"`
	Event            *string  `json:"event,omitempty"`
	Opening          *string  `json:"opening,omitempty"`
	ECOCode          *string  `json:"eco_code,omitempty"`
	WhiteRating      *int     `json:"white_rating,omitempty"`
	BlackRating      *int     `json:"black_rating,omitempty"`
	PlayedOn         *string  `json:"played_on,omitempty"`
	Score            float64  `json:"score"`
	VectorScore      float64  `json:"vector_score"`
	KeywordScore     float64  `json:"keyword_score"`
	AgentScore       *float64 `json:"agent_score,omitempty"`
	AgentExplanation string   `json:"agent_explanation,omitempty"`
	Themes           []string `json:"themes"`
	Phases           []string `json:"phases"`
	Keywords         []string `json:"keywords"`
}

type paginationView struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

type agentView struct {
	Status          string `json:"status"`
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
}

// QueryHandler serves POST/GET /query.
type QueryHandler struct {
	Catalogue     intent.OpeningCatalogue
	Deps          hybrid.Deps
	Breaker       *reliability.CircuitBreaker
	TotalDeadline time.Duration
	Logger        *slog.Logger

	// Telemetry traces query execution when non-nil. A nil or disabled
	// Provider makes tracing a no-op.
	Telemetry *telemetry.Provider
}

func (h *QueryHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP handles both POST (JSON body) and GET (query string) forms.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		HandleError(w, h.logger(), err)
		return
	}
	if req.Question == "" {
		HandleError(w, h.logger(), domain.NewValidationError("question", "question is required"))
		return
	}

	ctx := r.Context()
	deadline := h.TotalDeadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	catalogue := h.Catalogue
	if catalogue == nil {
		catalogue = intent.NoCatalogue{}
	}
	plan := intent.Analyse(req.Question, catalogue, req.Limit, req.Offset)

	deps := h.Deps
	if h.Breaker != nil {
		deps.AgentCircuitBreaker = h.Breaker.NewGuard()
	}

	if h.Telemetry != nil {
		var span trace.Span
		ctx, span = h.Telemetry.StartSpan(ctx, "chessmate.query.execute")
		telemetry.AddSpanAttributes(ctx,
			attribute.Int("chessmate.query.limit", plan.Limit),
			attribute.Int("chessmate.query.offset", plan.Offset),
			attribute.Int("chessmate.query.keyword_count", len(plan.Keywords)),
		)
		defer span.End()
	}

	out, err := hybrid.Execute(ctx, plan, deps)
	if err != nil {
		if h.Telemetry != nil {
			telemetry.RecordError(ctx, err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			HandleError(w, h.logger(), domain.ErrTimeout)
			return
		}
		HandleError(w, h.logger(), err)
		return
	}

	JSONData(w, http.StatusOK, toQueryResponse(req.Question, plan, out))
}

func (h *QueryHandler) parseRequest(r *http.Request) (QueryRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req := QueryRequest{Question: q.Get("q")}
		if lim := q.Get("limit"); lim != "" {
			n, err := strconv.Atoi(lim)
			if err != nil {
				return QueryRequest{}, domain.NewValidationError("limit", "limit must be an integer")
			}
			req.Limit = &n
		}
		if off := q.Get("offset"); off != "" {
			n, err := strconv.Atoi(off)
			if err != nil {
				return QueryRequest{}, domain.NewValidationError("offset", "offset must be an integer")
			}
			req.Offset = &n
		}
		return req, nil
	}

	var req QueryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return QueryRequest{}, domain.NewValidationError("body", "malformed request body")
	}
	return req, nil
}

func toQueryResponse(question string, plan domain.QueryPlan, out hybrid.Output) QueryResponse {
	filters := make(map[string]string, len(plan.Filters))
	for _, f := range plan.Filters {
		filters[string(f.Field)] = f.Value
	}

	results := make([]resultView, 0, len(out.Results))
	for _, res := range out.Results {
		results = append(results, toResultView(res))
	}

	return QueryResponse{
		Question: question,
		Plan: planView{
			Keywords: plan.Keywords,
			Filters:  filters,
			Limit:    plan.Limit,
			Offset:   plan.Offset,
		},
		Results: results,
		Pagination: paginationView{
			Offset:  out.Pagination.Offset,
			Limit:   out.Pagination.Limit,
			Total:   out.Pagination.Total,
			HasMore: out.Pagination.HasMore,
		},
		Warnings: nonNilStrings(out.Warnings),
		Agent:    agentView{Status: string(out.AgentStatus)},
	}
}

func toResultView(res hybrid.Result) resultView {
	g := res.Game
	var resultStr *string
	if g.Result != nil {
		s := string(*g.Result)
		resultStr = &s
	}
	var playedOn *string
	if g.PlayedOn != nil {
		s := g.PlayedOn.Format(time.RFC3339)
		playedOn = &s
	}
	return resultView{
		GameID:           g.ID,
		White:            g.WhiteName,
		Black:            g.BlackName,
		Result:           resultStr,
		Event:            g.Event,
		Opening:          g.OpeningName,
		ECOCode:          g.ECOCode,
		WhiteRating:      g.WhiteRating,
		BlackRating:      g.BlackRating,
		PlayedOn:         playedOn,
		Score:            res.FinalScore,
		VectorScore:      res.VectorComponent,
		KeywordScore:     res.KeywordComponent,
		AgentScore:       res.AgentScore,
		AgentExplanation: res.Explanation,
		Themes:           nonNilStrings(res.Themes),
		Phases:           nonNilStrings(res.Phases),
		Keywords:         nonNilStrings(res.Keywords),
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
