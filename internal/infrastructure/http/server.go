package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fxconv-service/internal/conversion"
	"fxconv-service/internal/domain"
	"fxconv-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// Session is the rate session the handlers read and refresh.
type Session interface {
	Refresh(ctx context.Context) domain.RateSnapshot
	Current(ctx context.Context) (domain.RateSnapshot, error)
	Convert(ctx context.Context, from domain.Currency, input string) (domain.AmountTriple, domain.RateSnapshot, error)
}

type Server struct {
	session Session
	nbkr    http.Handler
	metrics http.Handler
	ping    func(ctx context.Context) error
	log     *zap.Logger
}

type Option func(*Server)

// WithNBKRProxy mounts the same-origin XML proxy at /api/nbkr.
func WithNBKRProxy(h http.Handler) Option { return func(s *Server) { s.nbkr = h } }

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

func NewServer(session Session, opts ...Option) *Server {
	s := &Server{session: session}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logx.L()
	}
	return s
}

// SetReadyCheck adds a dependency check to /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type rateResponse struct {
	Seq         uint64            `json:"seq"`
	Status      string            `json:"status"`
	Notice      string            `json:"notice,omitempty"`
	USDToKGS    string            `json:"usd_to_kgs"`
	USDToRUB    string            `json:"usd_to_rub"`
	USDToKGSRaw float64           `json:"usd_to_kgs_raw"`
	USDToRUBRaw float64           `json:"usd_to_rub_raw"`
	KGSSource   string            `json:"kgs_source,omitempty"`
	RUBSource   string            `json:"rub_source,omitempty"`
	Failures    map[string]string `json:"failures,omitempty"`
	FetchedAt   time.Time         `json:"fetched_at"`
}

func toRateResponse(snap domain.RateSnapshot) rateResponse {
	resp := rateResponse{
		Seq:         snap.Seq,
		Status:      string(snap.Status),
		Notice:      snap.Notice(),
		USDToKGS:    conversion.FormatRate(snap.USDToKGS),
		USDToRUB:    conversion.FormatRate(snap.USDToRUB),
		USDToKGSRaw: snap.USDToKGS,
		USDToRUBRaw: snap.USDToRUB,
		KGSSource:   snap.KGSSource,
		RUBSource:   snap.RUBSource,
		FetchedAt:   snap.FetchedAt,
	}
	if len(snap.Failures) > 0 {
		resp.Failures = make(map[string]string, len(snap.Failures))
		for c, reason := range snap.Failures {
			resp.Failures[string(c)] = reason
		}
	}
	return resp
}

type convertResponse struct {
	From   string `json:"from"`
	USD    string `json:"usd"`
	KGS    string `json:"kgs"`
	RUB    string `json:"rub"`
	Seq    uint64 `json:"seq"`
	Status string `json:"status"`
	Notice string `json:"notice,omitempty"`
}

func (s *Server) GetRates(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Current(r.Context())
	if err != nil {
		s.snapshotError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateResponse(snap))
}

// RefreshRates runs one acquisition. A client that hangs up does not cancel it.
func (s *Server) RefreshRates(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Refresh(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, toRateResponse(snap))
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := domain.ParseCurrency(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be one of usd, kgs, rub")
		return
	}
	triple, snap, err := s.session.Convert(r.Context(), from, q.Get("amount"))
	if err != nil {
		s.snapshotError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		From:   string(from),
		USD:    triple.USD,
		KGS:    triple.KGS,
		RUB:    triple.RUB,
		Seq:    snap.Seq,
		Status: string(snap.Status),
		Notice: snap.Notice(),
	})
}

func (s *Server) snapshotError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNoSnapshot) {
		writeError(w, http.StatusServiceUnavailable, "rates not loaded yet")
		return
	}
	s.log.Error("session error", zap.Error(err), zap.String("trace_id", getTraceIDFromContext(r.Context())))
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}
