package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"peerlend/core"
	"peerlend/core/types"
	"peerlend/native/lending"
	"peerlend/observability/metrics"
)

const maxRequestBytes = 1 << 20

// Server exposes the node over JSON-RPC 2.0 plus health and metrics probes.
type Server struct {
	node    *core.Node
	logger  *slog.Logger
	methods map[string]handlerFunc
}

type handlerFunc func(params json.RawMessage) (interface{}, *Error)

// NewServer builds a server bound to the node.
func NewServer(node *core.Node, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{node: node, logger: logger}
	s.methods = map[string]handlerFunc{
		"lend_initializePool": s.lendInitializePool,
		"lend_deposit":        s.lendDeposit,
		"lend_borrow":         s.lendBorrow,
		"lend_repay":          s.lendRepay,
		"lend_liquidate":      s.lendLiquidate,
		"lend_getPool":        s.lendGetPool,
		"lend_getLoan":        s.lendGetLoan,

		"user_create":           s.userCreate,
		"user_updateReputation": s.userUpdateReputation,
		"user_setKYCStatus":     s.userSetKYCStatus,
		"user_get":              s.userGet,

		"asset_createDigital":  s.assetCreateDigital,
		"asset_createPhysical": s.assetCreatePhysical,
		"asset_updateAmount":   s.assetUpdateAmount,
		"asset_get":            s.assetGet,

		"bank_balance": s.bankBalance,
		"bank_mint":    s.bankMint,
	}
	return s
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handleRPC)
	return r
}

// ListenAndServe runs the server until the context is cancelled, then drains
// in-flight requests before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		writeResponse(w, Response{JSONRPC: "2.0", Error: errParse("invalid JSON body")})
		return
	}
	if req.Method == "" {
		writeResponse(w, Response{JSONRPC: "2.0", ID: req.ID, Error: errInvalidReq("method required")})
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		writeResponse(w, Response{JSONRPC: "2.0", ID: req.ID, Error: errMethodMissing("unknown method " + req.Method)})
		return
	}

	start := time.Now()
	result, rpcErr := handler(req.Params)
	metrics.ObserveRPCDuration(req.Method, time.Since(start).Seconds())

	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
		s.logger.Debug("rpc error", "method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
	} else {
		resp.Result = result
	}
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// submit runs one instruction through the node and classifies failures. The
// subsystem label feeds the instruction counters.
func (s *Server) submit(subsystem string, data []byte, metas []core.AccountMeta) (*core.Result, *Error) {
	result, err := s.node.SubmitInstruction(data, metas)
	if err != nil {
		metrics.InstructionRejected(subsystem)
		if lending.Internal(err) {
			return nil, errInternal(err.Error())
		}
		if errors.Is(err, core.ErrDecode) || errors.Is(err, lending.ErrDecode) {
			return nil, errInvalidParams(err.Error())
		}
		return nil, errRejected(err.Error())
	}
	metrics.InstructionApplied(subsystem)
	return result, nil
}

func eventsJSON(evts []*types.Event) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(evts))
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"type":       evt.Type,
			"attributes": evt.Attributes,
		})
	}
	return out
}

func decodeParams(raw json.RawMessage, dst interface{}) *Error {
	if len(raw) == 0 {
		return errInvalidParams("params required")
	}
	trimmed := strings.TrimSpace(string(raw))
	// Accept both positional single-object arrays and bare objects.
	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) != 1 {
			return errInvalidParams("expected a single params object")
		}
		raw = list[0]
	}
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errInvalidParams(err.Error())
	}
	return nil
}
