package httpserver

import (
	"net/http"

	"fxconv-service/internal/infrastructure/httpx"

	"go.uber.org/zap"
)

const nbkrProxyFailure = "failed to fetch rates from the National Bank of the Kyrgyz Republic"

// NBKRProxy re-serves the upstream XML verbatim with permissive CORS headers.
type NBKRProxy struct {
	Upstream string
	Client   *httpx.Client
	Log      *zap.Logger
}

func (p *NBKRProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := p.Client.Get(r.Context(), p.Upstream)
	if err != nil {
		if p.Log != nil {
			p.Log.Warn("nbkr_proxy.upstream_failed",
				zap.String("upstream", p.Upstream),
				zap.String("trace_id", getTraceIDFromContext(r.Context())),
				zap.Error(err),
			)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": nbkrProxyFailure})
		return
	}
	h.Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
