// Package server exposes the journal over HTTP. The server owns the
// in-memory trade dataset: imports replace it wholesale and bump a version
// counter, so metric responses are memoized per (version, filters) and a
// stale cache entry can never be served.
package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"deriverse-journal/internal/adapters"
	"deriverse-journal/internal/insights"
	"deriverse-journal/internal/logger"
	"deriverse-journal/internal/metrics"
	"deriverse-journal/internal/storage"
	"deriverse-journal/internal/store"
	"deriverse-journal/internal/types"
)

// Server holds the dataset, the persistent store and the report cache.
type Server struct {
	cfg       *store.Config
	store     *storage.Store
	deriverse *adapters.DeriverseClient
	cache     *metrics.Cache

	mu      sync.RWMutex
	trades  []types.NormalizedTrade
	source  string
	version uint64
}

// New builds a server around cfg and an opened store.
func New(cfg *store.Config, st *storage.Store) *Server {
	return &Server{
		cfg:   cfg,
		store: st,
		deriverse: adapters.NewDeriverseClient(adapters.DeriverseConfig{
			RPCURL:    cfg.Deriverse.RPCURL,
			ProgramID: cfg.Deriverse.ProgramID,
			Version:   cfg.Deriverse.Version,
		}),
		cache:  metrics.NewCache(cfg.Cache.Capacity),
		trades: []types.NormalizedTrade{},
		source: "none",
	}
}

// Router wires all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/v1")
	{
		v1.GET("/trades", s.handleTrades)
		v1.GET("/metrics", s.handleMetrics)
		v1.GET("/insights", s.handleInsights)

		v1.POST("/import/csv", s.handleImportCSV)
		v1.POST("/demo", s.handleDemo)
		v1.POST("/chain/sync", s.handleChainSync)

		v1.GET("/annotations", s.handleListAnnotations)
		v1.GET("/annotations/:tradeId", s.handleGetAnnotation)
		v1.PUT("/annotations/:tradeId", s.handlePutAnnotation)

		v1.GET("/journal", s.handleListJournal)
		v1.POST("/journal", s.handleSaveJournal)
		v1.DELETE("/journal/:id", s.handleDeleteJournal)
	}

	return r
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

// replaceTrades swaps in a freshly imported dataset and invalidates nothing:
// the bumped version keys new cache entries, old ones age out.
func (s *Server) replaceTrades(source string, trades []types.NormalizedTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = trades
	s.source = source
	s.version++
}

// snapshot returns the current dataset and its version. The slice is shared
// but never mutated after publication, so readers need no copy.
func (s *Server) snapshot() ([]types.NormalizedTrade, string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trades, s.source, s.version
}

// report computes (or recalls) the metrics and insights for one filter
// combination against the current dataset version.
func (s *Server) report(ctx *gin.Context, f metrics.Filters) (metrics.CacheEntry, int) {
	trades, _, version := s.snapshot()
	key := metrics.CacheKey(version, f)
	if entry, hit := s.cache.Get(key); hit {
		return entry, len(metrics.Filter(trades, f))
	}

	filtered := metrics.Filter(trades, f)
	start := time.Now()
	m := metrics.Compute(filtered, metrics.Options{StartingEquity: s.cfg.StartingEquity})
	in := insights.Compute(filtered, m)
	logger.Compute(ctx.Request.Context(), "report", len(filtered), time.Since(start))

	entry := metrics.CacheEntry{Metrics: m, Insights: in}
	s.cache.Put(key, entry)
	return entry, len(filtered)
}

func parseFilters(c *gin.Context) (metrics.Filters, error) {
	var f metrics.Filters
	f.Symbol = c.Query("symbol")
	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid from date %q, want YYYY-MM-DD", v)
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return f, fmt.Errorf("invalid to date %q, want YYYY-MM-DD", v)
		}
		f.To = t
	}
	return f, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	_, source, version := s.snapshot()
	ok(c, gin.H{"status": "up", "source": source, "dataset_version": version})
}

func (s *Server) handleTrades(c *gin.Context) {
	f, err := parseFilters(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	trades, source, _ := s.snapshot()
	filtered := metrics.Filter(trades, f)
	ok(c, gin.H{"source": source, "count": len(filtered), "trades": filtered})
}

func (s *Server) handleMetrics(c *gin.Context) {
	f, err := parseFilters(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	entry, count := s.report(c, f)
	ok(c, gin.H{"trade_count": count, "metrics": entry.Metrics})
}

func (s *Server) handleInsights(c *gin.Context) {
	f, err := parseFilters(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	entry, count := s.report(c, f)
	ok(c, gin.H{"trade_count": count, "insights": entry.Insights})
}

// handleImportCSV accepts the raw CSV document as the request body. The
// import is all-or-nothing: one bad row rejects the batch and the current
// dataset is untouched.
func (s *Server) handleImportCSV(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("read request body: %w", err))
		return
	}
	trades, err := adapters.ParseTradesCSV(string(body))
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	s.replaceTrades("csv", trades)
	logger.Import(c.Request.Context(), "csv", len(trades))
	ok(c, gin.H{"imported": len(trades), "source": "csv"})
}

func (s *Server) handleDemo(c *gin.Context) {
	count := s.cfg.Demo.Count
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, fmt.Errorf("invalid count %q", v))
			return
		}
		count = n
	}
	seed := s.cfg.Demo.Seed
	if v := c.Query("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, fmt.Errorf("invalid seed %q", v))
			return
		}
		seed = n
	}

	trades := adapters.GenerateDemoTrades(count, seed)
	s.replaceTrades("demo", trades)
	logger.Import(c.Request.Context(), "demo", len(trades))
	ok(c, gin.H{"imported": len(trades), "source": "demo", "seed": seed})
}

func (s *Server) handleChainSync(c *gin.Context) {
	trader := c.Query("trader")
	if trader == "" {
		fail(c, http.StatusBadRequest, fmt.Errorf("missing trader address"))
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	trades, err := s.deriverse.FetchTrades(c.Request.Context(), trader, limit)
	if err != nil {
		fail(c, http.StatusBadGateway, err)
		return
	}
	s.replaceTrades("deriverse", trades)
	ok(c, gin.H{"imported": len(trades), "source": "deriverse", "trader": trader})
}

func (s *Server) handleListAnnotations(c *gin.Context) {
	anns, err := s.store.Annotations()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, anns)
}

func (s *Server) handleGetAnnotation(c *gin.Context) {
	ann, found, err := s.store.Annotation(c.Param("tradeId"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, fmt.Errorf("no annotation for trade %s", c.Param("tradeId")))
		return
	}
	ok(c, ann)
}

func (s *Server) handlePutAnnotation(c *gin.Context) {
	var ann storage.TradeAnnotation
	if err := c.ShouldBindJSON(&ann); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid annotation body: %w", err))
		return
	}
	if err := s.store.UpsertAnnotation(c.Param("tradeId"), ann); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	stored, _, err := s.store.Annotation(c.Param("tradeId"))
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, stored)
}

func (s *Server) handleListJournal(c *gin.Context) {
	entries, err := s.store.JournalEntries()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []storage.JournalEntry{}
	}
	ok(c, entries)
}

func (s *Server) handleSaveJournal(c *gin.Context) {
	var entry storage.JournalEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("invalid journal body: %w", err))
		return
	}
	stored, err := s.store.SaveJournalEntry(entry)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, stored)
}

func (s *Server) handleDeleteJournal(c *gin.Context) {
	if err := s.store.DeleteJournalEntry(c.Param("id")); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, gin.H{"deleted": c.Param("id")})
}
