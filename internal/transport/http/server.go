// Package http is the operator-facing admin surface of the sync engine:
// read endpoints over the queue, snapshots, drift events, and policies, and
// write endpoints for replay, retry, refresh, and the staging pipeline.
package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/light-bringer/listsync-service/internal/app/sync/queries/diff_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/get_policy"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/health"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_dead_letter"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_drift"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_queue"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/enqueue"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/map_staged"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/refresh_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/replay"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retrieve"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retry"
)

// Usecases bundles the write-side interactors the server exposes.
type Usecases struct {
	Enqueue         *enqueue.Interactor
	Retry           *retry.Interactor
	Replay          *replay.Interactor
	RefreshPolicies *refresh_policies.Interactor
	Retrieve        *retrieve.Interactor
	MapStaged       *map_staged.Interactor
}

// Queries bundles the read-side queries the server exposes.
type Queries struct {
	ListQueue      *list_queue.Query
	ListDeadLetter *list_dead_letter.Query
	ListDrift      *list_drift.Query
	ListSnapshots  *list_snapshots.Query
	DiffSnapshots  *diff_snapshots.Query
	ListPolicies   *list_policies.Query
	GetPolicy      *get_policy.Query
	Health         *health.Query
}

// Server is the admin HTTP surface.
type Server struct {
	mux           *http.ServeMux
	usecases      Usecases
	queries       Queries
	operatorToken string
}

// NewServer wires the admin routes. operatorToken guards every write
// endpoint via the X-Operator-Token header; an empty token disables the
// check (local development only).
func NewServer(usecases Usecases, queries Queries, operatorToken string) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		usecases:      usecases,
		queries:       queries,
		operatorToken: operatorToken,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Reads
	s.mux.HandleFunc("GET /queue", s.handleListQueue)
	s.mux.HandleFunc("GET /queue/dead-letter", s.handleListDeadLetter)
	s.mux.HandleFunc("GET /drift-events", s.handleListDrift)
	s.mux.HandleFunc("GET /snapshots", s.handleListSnapshots)
	s.mux.HandleFunc("GET /snapshots/{a}/diff/{b}", s.handleDiffSnapshots)
	s.mux.HandleFunc("GET /policies", s.handleListPolicies)
	s.mux.HandleFunc("GET /policies/{type}/{id}", s.handleGetPolicy)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Writes
	s.mux.HandleFunc("POST /queue", s.operator(s.handleEnqueue))
	s.mux.HandleFunc("POST /queue/{id}/retry", s.operator(s.handleRetry))
	s.mux.HandleFunc("POST /failed-events/{id}/replay", s.operator(s.handleReplay))
	s.mux.HandleFunc("POST /policies/refresh", s.operator(s.handleRefreshPolicies))
	s.mux.HandleFunc("POST /retrieve", s.operator(s.handleRetrieve))
	s.mux.HandleFunc("POST /map/run", s.operator(s.handleMapRun))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// operator enforces the X-Operator-Token header on write endpoints.
func (s *Server) operator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.operatorToken != "" && r.Header.Get("X-Operator-Token") != s.operatorToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid operator token")
			return
		}
		next(w, r)
	}
}
