package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pitclaw"
	"pitclaw/internal/core/orchestrator"
	"pitclaw/internal/logger"
	"pitclaw/internal/service"
)

// Router wires the HTTP and WebSocket transport layer to the orchestrator
// and the account/audit services.
type Router struct {
	orch     *orchestrator.Orchestrator
	services *service.Service
	log      *logger.Logger
}

// NewRouter constructs the HTTP transport layer.
func NewRouter(orch *orchestrator.Orchestrator, services *service.Service, log *logger.Logger) *Router {
	return &Router{orch: orch, services: services, log: log}
}

// InitRoutes builds and returns the Gin engine with every route registered.
func (h *Router) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Router) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Router) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorIDMiddleware)
	{
		h.registerControlRoutes(api)
		h.registerSessionRoutes(api)
		h.registerAuditRoutes(api)
	}
}

func (h *Router) registerControlRoutes(api *gin.RouterGroup) {
	ctl := api.Group("/pit")
	{
		ctl.GET("/state", h.getState)
		ctl.POST("/setpoint", h.setSetpoint)
		ctl.POST("/meat-target", h.setMeatTarget)
		ctl.POST("/band", h.setPitBand)
		ctl.POST("/link", h.setLinkConnected)

		ctl.POST("/alarms/ack", h.acknowledgeAlarms)
		ctl.POST("/alarms/enabled", h.setAlarmEnabled)

		ctl.POST("/fan/manual", h.setFanManualDuty)
		ctl.POST("/fan/manual/clear", h.clearFanManualOverride)
	}
}

func (h *Router) registerSessionRoutes(api *gin.RouterGroup) {
	sess := api.Group("/session")
	{
		sess.POST("/start", h.startSession)
		sess.POST("/end", h.endSession)
		sess.POST("/clear", h.clearSession)
		sess.GET("/export.csv", h.exportSessionCSV)
		sess.GET("/export.json", h.exportSessionJSON)
	}
}

func (h *Router) registerAuditRoutes(api *gin.RouterGroup) {
	audit := api.Group("/audit")
	{
		audit.GET("/", h.getAudit)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Current state snapshot
// @Tags         pit
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pit/state [get]
// @Security     BearerAuth
func (h *Router) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Snapshot())
}

type setpointRequest struct {
	Degrees float64 `json:"degrees" binding:"required"`
}

// @Summary      Set pit setpoint
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  setpointRequest  true  "Target pit temperature"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/setpoint [post]
// @Security     BearerAuth
func (h *Router) setSetpoint(c *gin.Context) {
	var req setpointRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	h.orch.SetSetpoint(req.Degrees)
	h.respondWithState(c, statusAccepted)
}

type meatTargetRequest struct {
	Probe       string  `json:"probe" binding:"required"` // meat1 | meat2
	Temperature float64 `json:"temperature" binding:"required"`
}

// @Summary      Set a meat probe's target temperature
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  meatTargetRequest  true  "Meat probe and target"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/meat-target [post]
// @Security     BearerAuth
func (h *Router) setMeatTarget(c *gin.Context) {
	var req meatTargetRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	probe, ok := parseMeatProbe(req.Probe)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "probe must be meat1 or meat2"})
		return
	}
	h.orch.SetMeatTarget(pitclaw.SetMeatTargetParams{Probe: probe, Temperature: req.Temperature})
	h.respondWithState(c, statusAccepted)
}

func parseMeatProbe(s string) (pitclaw.ProbeID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meat1":
		return pitclaw.ProbeMeat1, true
	case "meat2":
		return pitclaw.ProbeMeat2, true
	default:
		return 0, false
	}
}

type pitBandRequest struct {
	Degrees float64 `json:"degrees" binding:"required"`
}

// @Summary      Set the pit-deviation alarm band
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  pitBandRequest  true  "Band width in degrees"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/band [post]
// @Security     BearerAuth
func (h *Router) setPitBand(c *gin.Context) {
	var req pitBandRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	h.orch.SetPitBand(req.Degrees)
	h.respondWithState(c, statusAccepted)
}

type linkRequest struct {
	Connected bool `json:"connected"`
}

// @Summary      Report link (app/cloud connection) status
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  linkRequest  true  "Link status"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/link [post]
// @Security     BearerAuth
func (h *Router) setLinkConnected(c *gin.Context) {
	var req linkRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	h.orch.SetLinkConnected(req.Connected)
	h.respondWithState(c, statusAccepted)
}

// @Summary      Acknowledge active alarms
// @Tags         pit
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pit/alarms/ack [post]
// @Security     BearerAuth
func (h *Router) acknowledgeAlarms(c *gin.Context) {
	h.orch.AcknowledgeAlarms()
	h.respondWithState(c, statusAccepted)
}

type alarmEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// @Summary      Enable or disable the audible alarm
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  alarmEnabledRequest  true  "Enabled flag"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/alarms/enabled [post]
// @Security     BearerAuth
func (h *Router) setAlarmEnabled(c *gin.Context) {
	var req alarmEnabledRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	h.orch.SetAlarmEnabled(req.Enabled)
	h.respondWithState(c, statusAccepted)
}

type fanManualRequest struct {
	Duty uint8 `json:"duty"`
}

// @Summary      Force the fan to a manual duty cycle
// @Tags         pit
// @Accept       json
// @Produce      json
// @Param        body  body  fanManualRequest  true  "Raw PWM duty byte, 0-255"
// @Success      200   {object}  pitclaw.StateSnapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/pit/fan/manual [post]
// @Security     BearerAuth
func (h *Router) setFanManualDuty(c *gin.Context) {
	var req fanManualRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	h.orch.SetFanManualDuty(req.Duty)
	h.respondWithState(c, statusAccepted)
}

// @Summary      Return the fan to PID/split-range control
// @Tags         pit
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/pit/fan/manual/clear [post]
// @Security     BearerAuth
func (h *Router) clearFanManualOverride(c *gin.Context) {
	h.orch.ClearFanManualOverride()
	h.respondWithState(c, statusAccepted)
}

// @Summary      Start a cook session
// @Tags         session
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/start [post]
// @Security     BearerAuth
func (h *Router) startSession(c *gin.Context) {
	h.orch.StartSession()
	h.respondWithState(c, statusStarted)
}

// @Summary      End the current cook session, flushing pending points
// @Tags         session
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/end [post]
// @Security     BearerAuth
func (h *Router) endSession(c *gin.Context) {
	h.orch.EndSession()
	h.respondWithState(c, statusStopped)
}

// @Summary      Clear the current cook session's recorded points
// @Tags         session
// @Produce      json
// @Success      200  {object}  pitclaw.StateSnapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/clear [post]
// @Security     BearerAuth
func (h *Router) clearSession(c *gin.Context) {
	h.orch.ClearSession()
	h.respondWithState(c, statusCleared)
}

// @Summary      Export the current cook session as CSV
// @Tags         session
// @Produce      text/csv
// @Success      200  {string}  string  "CSV body"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/export.csv [get]
// @Security     BearerAuth
func (h *Router) exportSessionCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.String(http.StatusOK, h.orch.Session().ToCSV())
}

// @Summary      Export the current cook session as JSON
// @Tags         session
// @Produce      json
// @Success      200  {string}  string  "JSON array of points"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session/export.json [get]
// @Security     BearerAuth
func (h *Router) exportSessionJSON(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(h.orch.Session().ToJSON()))
}

// @Summary      List audited commands
// @Tags         audit
// @Produce      json
// @Param        from  query  string  false  "Start of range (RFC3339)"
// @Param        to    query  string  false  "End of range (RFC3339)"
// @Param        kind  query  string  false  "Command kind, e.g. set_setpoint"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/audit [get]
// @Security     BearerAuth
func (h *Router) getAudit(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		if from, err = time.Parse(time.RFC3339, qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' time; use RFC3339"})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if to, err = time.Parse(time.RFC3339, qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' time; use RFC3339"})
			return
		}
	}
	events, err := h.services.Audit.List(ctx, service.AuditFilter{From: from, To: to, Kind: c.Query("kind")})
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "failed to load audit log", "audit_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// respondWithState replies with a status tag and the current snapshot.
func (h *Router) respondWithState(c *gin.Context, status string) {
	c.JSON(http.StatusOK, gin.H{"status": status, "state": h.orch.Snapshot()})
}

func (h *Router) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
