package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/engine"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/observability"
	"github.com/gabrielfst30/descentralized-stablecoin-engine/oracle"
)

// Server exposes the engine over HTTP: unauthenticated queries plus
// bearer-token mutations.
type Server struct {
	engine  *engine.Engine
	feed    *oracle.ManualFeed
	log     *slog.Logger
	metrics *observability.EngineMetrics

	tokens         map[string]struct{}
	allowAnonymous bool
}

// New wires a Server. feed may be nil when prices are managed elsewhere; the
// price-update route then responds 404.
func New(eng *engine.Engine, feed *oracle.ManualFeed, log *slog.Logger, apiTokens []string, allowAnonymous bool) *Server {
	tokens := make(map[string]struct{}, len(apiTokens))
	for _, token := range apiTokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens[trimmed] = struct{}{}
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:         eng,
		feed:           feed,
		log:            log,
		metrics:        observability.Engine(),
		tokens:         tokens,
		allowAnonymous: allowAnonymous,
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/accounts/{addr}", s.handleAccountInformation)
		v1.Get("/accounts/{addr}/health", s.handleHealthFactor)
		v1.Get("/accounts/{addr}/collateral", s.handleCollateralValue)
		v1.Get("/accounts/{addr}/collateral/{asset}", s.handleCollateralBalance)
		v1.Get("/collateral/{asset}/usd-value", s.handleUsdValue)
		v1.Get("/collateral/{asset}/token-amount", s.handleTokenAmount)

		v1.Group(func(private chi.Router) {
			private.Use(s.authenticate)
			private.Post("/deposit", s.handleDeposit)
			private.Post("/mint", s.handleMint)
			private.Post("/deposit-and-mint", s.handleDepositAndMint)
			private.Post("/redeem", s.handleRedeem)
			private.Post("/burn", s.handleBurn)
			private.Post("/redeem-for-dsc", s.handleRedeemForDsc)
			private.Post("/liquidate", s.handleLiquidate)
			private.Put("/prices", s.handleSetPrice)
		})
	})

	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowAnonymous {
			next.ServeHTTP(w, r)
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, "bearer token required")
			return
		}
		if _, ok := s.tokens[strings.TrimSpace(header[len(prefix):])]; !ok {
			writeError(w, http.StatusForbidden, "unknown token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps engine errors onto stable HTTP statuses: 400 for rejected
// input, 409 for invariant violations, 502 for collaborator failures, 503
// when the module is paused or busy.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrUnknownCollateral):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInsufficientBalance),
		errors.Is(err, engine.ErrHealthFactorOk),
		errors.Is(err, engine.ErrHealthFactorNotImproved),
		errors.Is(err, engine.ErrBrokenHealthFactor):
		return http.StatusConflict
	case errors.Is(err, engine.ErrTransferFailed),
		errors.Is(err, engine.ErrMintFailed),
		errors.Is(err, engine.ErrInvalidPrice),
		errors.Is(err, oracle.ErrUnknownAsset):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrModulePaused),
		errors.Is(err, engine.ErrReentrancy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// reasonFor labels an engine error for metrics.
func reasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, engine.ErrUnknownCollateral):
		return "unknown_collateral"
	case errors.Is(err, engine.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, engine.ErrHealthFactorOk):
		return "health_factor_ok"
	case errors.Is(err, engine.ErrHealthFactorNotImproved):
		return "health_factor_not_improved"
	case errors.Is(err, engine.ErrBrokenHealthFactor):
		return "broken_health_factor"
	case errors.Is(err, engine.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, engine.ErrMintFailed):
		return "mint_failed"
	case errors.Is(err, engine.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, engine.ErrModulePaused):
		return "paused"
	case errors.Is(err, engine.ErrReentrancy):
		return "reentrancy"
	default:
		return "internal"
	}
}

func (s *Server) finish(w http.ResponseWriter, operation string, started time.Time, err error) {
	s.metrics.Observe(operation, err, reasonFor(err), time.Since(started))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("operation failed", "operation", operation, "error", err)
		} else {
			s.log.Info("operation rejected", "operation", operation, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseAddress(raw string) (crypto.Address, error) {
	return crypto.DecodeAddress(strings.TrimSpace(raw))
}

func parseAmount(raw string) (*big.Int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}
