package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/diff_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/get_policy"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/health"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_dead_letter"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_drift"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_queue"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/list_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/repo"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/enqueue"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/map_staged"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/publish"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/reconcile"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/refresh_policies"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/replay"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retrieve"
	"github.com/light-bringer/listsync-service/internal/app/sync/usecases/retry"
	"github.com/light-bringer/listsync-service/internal/pkg/clock"
	"github.com/light-bringer/listsync-service/internal/policycache"
	"github.com/light-bringer/listsync-service/internal/publisher"
	"github.com/light-bringer/listsync-service/internal/reconciler"
	"github.com/light-bringer/listsync-service/internal/remote"
	httptransport "github.com/light-bringer/listsync-service/internal/transport/http"
)

// Config carries everything NewServiceOptions needs to assemble the engine.
type Config struct {
	SpannerDB string

	MarketplaceBaseURL   string
	MarketplaceAuthToken string
	MarketplaceUserAgent string

	OperatorToken string

	PublishInterval    time.Duration
	ReconcileInterval  time.Duration
	ReconcilePageSize  int64
	PublishBatchMax    int
	LeaseDuration      time.Duration
	PolicyTTL          time.Duration
	SnapshotStaleAfter time.Duration
}

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	SpannerClient *spanner.Client
	Server        *httptransport.Server
	Publisher     *publisher.Worker
	Reconciler    *reconciler.Worker
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg Config) (*ServiceOptions, error) {
	spannerClient, err := spanner.NewClient(ctx, cfg.SpannerDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spanner client: %w", err)
	}

	clk := clock.NewRealClock()

	marketplace, err := remote.NewHTTPClient(remote.HTTPClientOptions{
		BaseURL:   cfg.MarketplaceBaseURL,
		AuthToken: cfg.MarketplaceAuthToken,
		UserAgent: cfg.MarketplaceUserAgent,
	})
	if err != nil {
		spannerClient.Close()
		return nil, fmt.Errorf("failed to create marketplace client: %w", err)
	}

	queueRepo := repo.NewQueueRepo(spannerClient, clk, domain.DefaultBackoff(), cfg.LeaseDuration)
	snapshotRepo := repo.NewSnapshotRepo(spannerClient)
	driftRepo := repo.NewDriftEventRepo(spannerClient)
	failedRepo := repo.NewFailedEventRepo(spannerClient)
	policyRepo := repo.NewPolicyRepo(spannerClient, clk)
	stagingRepo := repo.NewStagingRepo(spannerClient, clk)
	listingRepo := repo.NewListingRepo(spannerClient, clk)

	cache := policycache.New(policyRepo, marketplace, clk, cfg.PolicyTTL)

	publishUseCase := publish.NewInteractor(queueRepo, listingRepo, marketplace)
	reconcileUseCase := reconcile.NewInteractor(listingRepo, snapshotRepo, driftRepo, marketplace, clk, cfg.SnapshotStaleAfter)

	usecases := httptransport.Usecases{
		Enqueue:         enqueue.NewInteractor(queueRepo, listingRepo),
		Retry:           retry.NewInteractor(queueRepo, listingRepo),
		Replay:          replay.NewInteractor(failedRepo, queueRepo, listingRepo),
		RefreshPolicies: refresh_policies.NewInteractor(cache),
		Retrieve:        retrieve.NewInteractor(stagingRepo, marketplace, listingRepo, reconcileUseCase),
		MapStaged:       map_staged.NewInteractor(stagingRepo, listingRepo, listingRepo),
	}
	queries := httptransport.Queries{
		ListQueue:      list_queue.NewQuery(queueRepo),
		ListDeadLetter: list_dead_letter.NewQuery(failedRepo),
		ListDrift:      list_drift.NewQuery(driftRepo),
		ListSnapshots:  list_snapshots.NewQuery(snapshotRepo),
		DiffSnapshots:  diff_snapshots.NewQuery(snapshotRepo),
		ListPolicies:   list_policies.NewQuery(policyRepo),
		GetPolicy:      get_policy.NewQuery(cache),
		Health:         health.NewQuery(queueRepo, failedRepo, clk),
	}

	return &ServiceOptions{
		SpannerClient: spannerClient,
		Server:        httptransport.NewServer(usecases, queries, cfg.OperatorToken),
		Publisher:     publisher.NewWorker(publishUseCase, queueRepo, cfg.PublishInterval, cfg.PublishBatchMax),
		Reconciler:    reconciler.NewWorker(reconcileUseCase, listingRepo, cfg.ReconcileInterval, cfg.ReconcilePageSize),
	}, nil
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	if s.SpannerClient != nil {
		s.SpannerClient.Close()
	}
}
