package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Today's steps
// @Description  Sum of all step buckets of the current local day. No data is 0.
// @Tags         metrics
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "today_steps"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "session not initialized or permissions missing"
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/v1/metrics/steps/today [get]
// @Security     BearerAuth
func (h *Handler) getTodaySteps(c *gin.Context) {
	steps, err := h.services.Metrics.TodaySteps(c.Request.Context())
	if err != nil {
		h.respondSessionError(c, "metrics_today_steps_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today_steps": steps})
}

// @Summary      Latest heart rate
// @Description  Most recent reading of the trailing 60 minutes; null when there is none.
// @Tags         metrics
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "latest_heart_rate"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}
// @Router       /api/v1/metrics/heart-rate/latest [get]
// @Security     BearerAuth
func (h *Handler) getLatestHeartRate(c *gin.Context) {
	bpm, err := h.services.Metrics.LatestHeartRate(c.Request.Context())
	if err != nil {
		h.respondSessionError(c, "metrics_latest_heart_rate_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"latest_heart_rate": bpm})
}
