package status

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"BidSentinel/internal/state"
	"BidSentinel/internal/store"
)

// Server exposes a read-only HTTP view of the bot: current counters and the
// recent bid history. It never mutates state.
type Server struct {
	state   *state.Manager
	store   store.Store
	log     zerolog.Logger
	srv     *http.Server
	started time.Time
}

func NewServer(addr string, st *state.Manager, bids store.Store, log zerolog.Logger) *Server {
	s := &Server{
		state:   st,
		store:   bids,
		log:     log.With().Str("component", "status").Logger(),
		started: time.Now().UTC(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", s.handleStatus)
	r.Get("/bids", s.handleBids)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown. It runs in its own goroutine; a listen failure
// is logged, not fatal, because the status surface is auxiliary to bidding.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("status server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("status server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()
	resp := map[string]any{
		"bids_placed_today":  snap.BidsPlacedToday,
		"last_reset_date":    snap.LastResetDate,
		"consecutive_errors": snap.ConsecutiveErrors,
		"total_bids":         snap.TotalBids,
		"total_rejected":     snap.TotalRejected,
		"total_failed":       snap.TotalFailed,
		"dedup_skips":        snap.DedupSkips,
		"dedup_window_size":  len(snap.ProcessedListingIDs),
		"uptime_seconds":     int(time.Since(s.started).Seconds()),
		"updated_at":         snap.UpdatedAt,
	}
	writeJSON(w, s.log, resp)
}

func (s *Server) handleBids(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	bids, err := s.store.RecentBids(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("load recent bids")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.log, map[string]any{"bids": bids, "count": len(bids)})
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
