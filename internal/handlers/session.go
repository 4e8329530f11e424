package handlers

import (
	"net/http"

	"health_dashboard/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK          = "ok"
	statusInitialized = "initialized"
	statusGranted     = "permissions_granted"
	statusRefreshed   = "refreshed"

	errInvalidBodyPref = "invalid body: "
)

// Respond with a status and the current session snapshot.
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["state"] = h.services.Session.Snapshot()
	c.JSON(http.StatusOK, resp)
}

// PermissionsRequest is the payload of the permission grant call.
type PermissionsRequest struct {
	// Data types to request read access for. Allowed: steps, heartRate, sleep, weight
	DataTypes []string `json:"data_types" binding:"required,min=1" example:"steps,heartRate"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Initialize health session
// @Description  Connects to the health data provider. Resets any previous session.
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, message, state"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "operation in progress"
// @Failure      502  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}  "platform unsupported or SDK unavailable"
// @Router       /api/v1/session/initialize [post]
// @Security     BearerAuth
func (h *Handler) initializeSession(c *gin.Context) {
	msg, err := h.services.Session.Initialize(c.Request.Context())
	if err != nil {
		h.respondSessionError(c, "session_initialize_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusInitialized, gin.H{"message": msg})
}

// @Summary      Request permissions
// @Description  Requests read access for all listed data types in one prompt. Requires an initialized session.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body   PermissionsRequest  true  "Data types"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]interface{}  "denied_types lists refused types"
// @Failure      409   {object}  map[string]interface{}
// @Failure      502   {object}  map[string]interface{}
// @Router       /api/v1/session/permissions [post]
// @Security     BearerAuth
func (h *Handler) requestPermissions(c *gin.Context) {
	var req PermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	types, err := models.ParseDataTypeSet(req.DataTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.services.Session.RequestPermissions(c.Request.Context(), types)
	if err != nil {
		h.respondSessionError(c, "session_permissions_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusGranted, gin.H{"message": msg})
}

// @Summary      Refresh metrics
// @Description  Re-fetches today's steps and the latest heart rate. One failing metric keeps its previous value.
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}  "session not ready"
// @Failure      502  {object}  map[string]interface{}  "both metrics failed"
// @Router       /api/v1/session/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshSession(c *gin.Context) {
	if err := h.services.Session.Refresh(c.Request.Context()); err != nil {
		h.respondSessionError(c, "session_refresh_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusRefreshed, nil)
}

// @Summary      Get session state
// @Tags         session
// @Produce      json
// @Success      200  {object}  models.SessionSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/state [get]
// @Security     BearerAuth
func (h *Handler) getSessionState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Session.Snapshot())
}
