package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-alert/app/tasks"
)

func NewHandler(configs ConfigProvider, watermarkRepo WatermarkLoader,
	runRepo RunLister, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		configs:       configs,
		watermarkRepo: watermarkRepo,
		runRepo:       runRepo,
		scheduler:     scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configs.GetConfigCount(),
	}

	if result := h.scheduler.LastResult(); result != nil {
		processed, matched, failures := result.Totals()
		health["last_run"] = map[string]interface{}{
			"started_at":  result.StartedAt.Format(time.RFC3339),
			"finished_at": result.FinishedAt.Format(time.RFC3339),
			"feeds":       len(result.FeedNames),
			"processed":   processed,
			"matched":     matched,
			"events":      len(result.Events),
			"failures":    failures,
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	limit := recentRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := h.runRepo.GetRecentRuns(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		items = append(items, map[string]interface{}{
			"id":              run.ID,
			"started_at":      run.StartedAt.Format(time.RFC3339),
			"finished_at":     run.FinishedAt.Format(time.RFC3339),
			"feeds":           run.Feeds,
			"items_processed": run.ItemsProcessed,
			"items_matched":   run.ItemsMatched,
			"events":          run.Events,
			"failures":        run.Failures,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  items,
		"total": len(items),
	})
}

func (h *Handler) APIListWatermarks(c *gin.Context) {
	watermarks, err := h.watermarkRepo.List(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_watermarks", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(watermarks))
	for _, w := range watermarks {
		items = append(items, map[string]interface{}{
			"feed":           w.FeedName,
			"last_published": w.LastPublished,
			"updated_at":     w.UpdatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"watermarks": items,
		"total":      len(items),
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configs.GetSortedConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, map[string]interface{}{
			"name":        feedConfig.Name,
			"url":         feedConfig.URL,
			"keywords":    feedConfig.Keywords,
			"enabled":     feedConfig.Settings.Enabled,
			"timeout":     (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
			"date_format": feedConfig.Settings.DateFormat,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	feedConfig, err := h.configs.GetConfig(name)
	if err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	details := map[string]interface{}{
		"name":        feedConfig.Name,
		"url":         feedConfig.URL,
		"keywords":    feedConfig.Keywords,
		"enabled":     feedConfig.Settings.Enabled,
		"timeout":     (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"date_format": feedConfig.Settings.DateFormat,
		"watermark":   nil,
	}

	watermarks, _, err := h.watermarkRepo.Load(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "load_watermarks", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if value, ok := watermarks[name]; ok {
		details["watermark"] = value
	}

	if result := h.scheduler.LastResult(); result != nil {
		if stats, ok := result.Stats[name]; ok {
			details["last_run"] = map[string]interface{}{
				"processed":      stats.ItemsProcessed,
				"matched":        stats.ItemsMatched,
				"parse_failures": stats.ParseFailures,
				"failed":         stats.Failed,
				"error":          stats.Error,
			}
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APITriggerRun(c *gin.Context) {
	if err := h.scheduler.EnqueueRun(); err != nil {
		slog.Error("Error enqueueing run task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue run task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Triage run enqueued",
	})
}
