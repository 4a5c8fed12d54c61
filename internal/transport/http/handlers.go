package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/diff_snapshots"
	"github.com/light-bringer/listsync-service/internal/app/sync/queries/get_policy"
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
	"github.com/light-bringer/listsync-service/internal/remote"
)

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	items, err := s.queries.ListQueue.Execute(r.Context(), &list_queue.Request{
		Status:    r.URL.Query().Get("status"),
		ListingID: queryInt64(r, "listing_id"),
		Limit:     queryInt64(r, "limit"),
		Offset:    queryInt64(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]queueItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toQueueItemDTO(item))
	}
	writeJSON(w, http.StatusOK, listResponse[queueItemDTO]{Items: out, Count: len(out)})
}

func (s *Server) handleListDeadLetter(w http.ResponseWriter, r *http.Request) {
	events, err := s.queries.ListDeadLetter.Execute(r.Context(), &list_dead_letter.Request{
		ListingID: queryInt64(r, "listing_id"),
		Limit:     queryInt64(r, "limit"),
		Offset:    queryInt64(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]failedEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toFailedEventDTO(event))
	}
	writeJSON(w, http.StatusOK, listResponse[failedEventDTO]{Items: out, Count: len(out)})
}

func (s *Server) handleListDrift(w http.ResponseWriter, r *http.Request) {
	events, err := s.queries.ListDrift.Execute(r.Context(), &list_drift.Request{
		ListingID: queryInt64(r, "listing_id"),
		Limit:     queryInt64(r, "limit"),
		Offset:    queryInt64(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]driftEventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toDriftEventDTO(event))
	}
	writeJSON(w, http.StatusOK, listResponse[driftEventDTO]{Items: out, Count: len(out)})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.queries.ListSnapshots.Execute(r.Context(), &list_snapshots.Request{
		ListingID: queryInt64(r, "listing_id"),
		Limit:     queryInt64(r, "limit"),
		Offset:    queryInt64(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]snapshotDTO, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toSnapshotDTO(snap))
	}
	writeJSON(w, http.StatusOK, listResponse[snapshotDTO]{Items: out, Count: len(out)})
}

func (s *Server) handleDiffSnapshots(w http.ResponseWriter, r *http.Request) {
	result, err := s.queries.DiffSnapshots.Execute(r.Context(), &diff_snapshots.Request{
		SnapshotA: r.PathValue("a"),
		SnapshotB: r.PathValue("b"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, diffResponse{
		A:       toSnapshotDTO(result.A),
		B:       toSnapshotDTO(result.B),
		Changes: result.Changes,
	})
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	entries, err := s.queries.ListPolicies.Execute(r.Context(), &list_policies.Request{
		Limit:  queryInt64(r, "limit"),
		Offset: queryInt64(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]policyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toPolicyEntryDTO(entry))
	}
	writeJSON(w, http.StatusOK, listResponse[policyEntryDTO]{Items: out, Count: len(out)})
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	entry, err := s.queries.GetPolicy.Execute(r.Context(), &get_policy.Request{
		PolicyType: r.PathValue("type"),
		RemoteID:   r.PathValue("id"),
	})
	if err != nil {
		// A cache miss whose backing fetch 404s means the key does not exist.
		var re *remote.Error
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "policy not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyEntryDTO(entry))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary, err := s.queries.Health.Execute(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type enqueueRequest struct {
	ListingID int64  `json:"listing_id"`
	Intent    string `json:"intent"`
	RemoteID  string `json:"remote_id"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var body enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := s.usecases.Enqueue.Execute(r.Context(), &enqueue.Request{
		ListingID: body.ListingID,
		Intent:    domain.Intent(body.Intent),
		RemoteID:  body.RemoteID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toQueueItemDTO(result.Item))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	item, err := s.usecases.Retry.Execute(r.Context(), &retry.Request{QueueID: r.PathValue("id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQueueItemDTO(item))
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	item, err := s.usecases.Replay.Execute(r.Context(), &replay.Request{FailedEventID: r.PathValue("id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQueueItemDTO(item))
}

type refreshPoliciesRequest struct {
	PolicyType string `json:"policy_type"`
	RemoteID   string `json:"remote_id"`
}

func (s *Server) handleRefreshPolicies(w http.ResponseWriter, r *http.Request) {
	var body refreshPoliciesRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	result, err := s.usecases.RefreshPolicies.Execute(r.Context(), &refresh_policies.Request{
		PolicyType: body.PolicyType,
		RemoteID:   body.RemoteID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type retrieveRequest struct {
	RemoteIDs []string `json:"remote_ids"`
	Limit     int      `json:"limit"`
	DryRun    bool     `json:"dry_run"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	// Query params drive the bulk sweep; a JSON body names specific items.
	body := retrieveRequest{
		Limit:  int(queryInt64(r, "limit")),
		DryRun: queryBool(r, "dry_run"),
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	result, err := s.usecases.Retrieve.Execute(r.Context(), &retrieve.Request{
		RemoteIDs: body.RemoteIDs,
		Limit:     body.Limit,
		DryRun:    body.DryRun,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMapRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.usecases.MapStaged.Execute(r.Context(), &map_staged.Request{
		Limit:  queryInt64(r, "limit"),
		DryRun: queryBool(r, "dry_run"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
