// Package httpserver exposes the aggregation REST API: the upload endpoint
// used by devices and the read-only analytics consumed by dashboards.
package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/location"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/repository"
	"github.com/radheshpai87/aurahealth-core/internal/wire"
)

// maxTrendDays caps the analytics window a dashboard may request.
const maxTrendDays = 365

// Server wires the health-record repository into HTTP handlers.
type Server struct {
	records repository.HealthRecordRepository
	log     *zap.Logger
}

// New constructs a server with injected dependencies.
func New(records repository.HealthRecordRepository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{records: records, log: log}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(s.log), RequestID(), Logging(s.log))

	r.GET("/ping", s.handlePing)
	r.POST("/sync", s.handleSync)
	r.GET("/analytics/village/:code", s.handleVillageStats)
	r.GET("/analytics/trends/:code", s.handleTrends)
	return r
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, wire.PingResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// handleSync stores an uploaded batch. The whole batch is rejected on
// validation errors; insert failures past validation produce a 207 so the
// device can tell partial progress from total loss.
func (s *Server) handleSync(c *gin.Context) {
	var req wire.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := wire.FromWireRecords(req.Records)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.records.InsertBatch(c.Request.Context(), records)
	if err != nil {
		s.log.Error("insert batch", zap.Error(err), zap.Int("records", len(records)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}

	accepted := report.Inserted + report.Duplicates
	if report.Failed > 0 {
		c.JSON(http.StatusMultiStatus, wire.SyncResponse{
			Message: "partial", Count: accepted, Failed: report.Failed,
		})
		return
	}
	c.JSON(http.StatusCreated, wire.SyncResponse{Message: "records stored", Count: accepted})
}

func (s *Server) handleVillageStats(c *gin.Context) {
	code := location.NormalizeAreaCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "village code required"})
		return
	}
	stats, err := s.records.VillageStats(c.Request.Context(), code)
	if err != nil {
		s.log.Error("village stats", zap.Error(err), zap.String("village", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleTrends(c *gin.Context) {
	code := location.NormalizeAreaCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "village code required"})
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	points, err := s.records.Trends(c.Request.Context(), code, days)
	if err != nil {
		s.log.Error("trends", zap.Error(err), zap.String("village", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	if points == nil {
		points = []model.TrendPoint{}
	}
	if days == 0 {
		days = repository.DefaultTrendDays
	}
	c.JSON(http.StatusOK, gin.H{"village_code": code, "days": days, "points": points})
}
