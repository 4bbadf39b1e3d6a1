package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/models"
	"github.com/sincov/airmon-go/internal/services"
)

// ReportLog is the report persistence surface, implemented by
// database.ReportRepository.
type ReportLog interface {
	FetchReports(ctx context.Context, stationID int64, from, to time.Time) ([]models.Report, error)
	InsertReport(ctx context.Context, rep models.Report) (models.Report, error)
}

// DailyReportLister is implemented by database.DailyReportRepository.
type DailyReportLister interface {
	ListDailyReports(ctx context.Context, stationID int64, limit int) ([]models.DailyReport, error)
}

type ReportsHandler struct {
	reports     ReportLog
	dailies     DailyReportLister
	stations    StationStore
	invalidator services.CacheInvalidator
}

func NewReportsHandler(reports ReportLog, dailies DailyReportLister, stations StationStore, invalidator services.CacheInvalidator) *ReportsHandler {
	return &ReportsHandler{
		reports:     reports,
		dailies:     dailies,
		stations:    stations,
		invalidator: invalidator,
	}
}

// InsertReportRequest is the payload for new measurements. PM25 is a
// pointer: absent means sensor fault, which is a valid report.
type InsertReportRequest struct {
	StationID int64     `json:"station_id" binding:"required,gt=0"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	PM25      *float64  `json:"pm25" binding:"omitempty,gte=0"`
	Source    string    `json:"source" binding:"required,max=100"`
}

// Insert appends a report and synchronously invalidates the station's
// aggregate cache so later reads recompute from the fresh log.
func (h *ReportsHandler) Insert(c *gin.Context) {
	var req InsertReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.stations.GetStation(ctx, req.StationID); err != nil {
		abortWithError(c, err)
		return
	}

	report, err := h.reports.InsertReport(ctx, models.Report{
		StationID: req.StationID,
		Timestamp: req.Timestamp.UTC(),
		PM25:      req.PM25,
		Source:    req.Source,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	if h.invalidator != nil {
		// The report is already stored; a failed invalidation only
		// leaves a stale cache entry until its TTL.
		if err := h.invalidator.InvalidateStation(ctx, req.StationID); err != nil {
			logrus.WithError(err).WithField("station_id", req.StationID).Warn("Cache invalidation failed")
		}
	}

	c.JSON(http.StatusCreated, report)
}

// ReportListResponse wraps a raw report window.
type ReportListResponse struct {
	StationID int64           `json:"station_id"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Data      []models.Report `json:"data"`
	Total     int             `json:"total"`
}

// ListForStation returns raw reports for the trailing window.
func (h *ReportsHandler) ListForStation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	window, ok := parseHours(c, 24, 24*14)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.stations.GetStation(ctx, id); err != nil {
		abortWithError(c, err)
		return
	}

	to := time.Now().UTC()
	from := to.Add(-window)
	reports, err := h.reports.FetchReports(ctx, id, from, to)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReportListResponse{
		StationID: id,
		From:      from,
		To:        to,
		Data:      reports,
		Total:     len(reports),
	})
}

// ListDaily returns persisted daily summaries for a station.
func (h *ReportsHandler) ListDaily(c *gin.Context) {
	stationID, err := strconv.ParseInt(c.Query("station_id"), 10, 64)
	if err != nil || stationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station_id parameter"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	dailies, err := h.dailies.ListDailyReports(c.Request.Context(), stationID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dailies, "total": len(dailies)})
}
