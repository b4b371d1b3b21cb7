package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/container"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/messaging"
	"github.com/matchdaymedia/leaguedesk-go/internal/presentation/http/middleware"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

// SysOpHandlers handles sysop dashboard authentication, operational
// endpoints and the live websocket feed
type SysOpHandlers struct {
	container *container.Container
	upgrader  websocket.Upgrader
}

// NewSysOpHandlers creates new sysop handlers
func NewSysOpHandlers(container *container.Container) *SysOpHandlers {
	return &SysOpHandlers{
		container: container,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// AuthCheck reports whether a password is configured and whether the caller
// holds a valid session token
func (h *SysOpHandlers) AuthCheck(c *gin.Context) {
	response := gin.H{
		"passwordRequired": config.SysopPassword != "",
		"authenticated":    config.SysopPassword == "",
	}

	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && auth[:7] == "Bearer " {
		if middleware.ValidateSysopToken(auth[7:]) == nil {
			response["authenticated"] = true
		}
	}
	c.JSON(http.StatusOK, response)
}

// Login handles sysop authentication and mints a session token
func (h *SysOpHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if config.SysopPassword == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": ""})
		return
	}
	if !middleware.VerifySysopPassword(request.Password) {
		h.container.Logger.Sysop().Warn("Failed sysop login attempt", "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := middleware.IssueSysopToken()
	if err != nil {
		h.container.Logger.Sysop().Error("Failed to mint sysop token", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token signing unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// CacheHealth handles GET /api/sysop/cache/health
func (h *SysOpHandlers) CacheHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.CacheManager.Health(c.Request.Context()))
}

// CacheMetrics handles GET /api/sysop/cache/metrics
func (h *SysOpHandlers) CacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.CacheManager.Metrics())
}

// CacheWarm handles POST /api/sysop/cache/warm and runs a warm pass now
func (h *SysOpHandlers) CacheWarm(c *gin.Context) {
	warmed := h.container.WarmingService.WarmNow(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"warmed": warmed})
}

// CacheClear handles POST /api/sysop/cache/clear
func (h *SysOpHandlers) CacheClear(c *gin.Context) {
	h.container.CacheManager.InvalidateAll(c.Request.Context())
	h.container.Logger.Sysop().Warn("Cache cleared by operator", "remote", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// MonitorSnapshot handles GET /api/sysop/monitor/snapshot
func (h *SysOpHandlers) MonitorSnapshot(c *gin.Context) {
	snapshot := h.container.Monitor.Latest()
	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{"status": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// MonitorSummary handles GET /api/sysop/monitor/summary
func (h *SysOpHandlers) MonitorSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Monitor.Summarize())
}

// AlertsOpen handles GET /api/sysop/alerts/open
func (h *SysOpHandlers) AlertsOpen(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.AlertEngine.ListOpen())
}

// AlertsRecent handles GET /api/sysop/alerts/recent?limit=N
func (h *SysOpHandlers) AlertsRecent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	c.JSON(http.StatusOK, h.container.AlertEngine.ListRecent(limit))
}

// AlertsStats handles GET /api/sysop/alerts/stats?period=24h
func (h *SysOpHandlers) AlertsStats(c *gin.Context) {
	period := 24 * time.Hour
	if raw := c.Query("period"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period must be a positive duration"})
			return
		}
		period = parsed
	}
	c.JSON(http.StatusOK, h.container.AlertEngine.Summarize(period))
}

// AcknowledgeAlert handles POST /api/sysop/alerts/:id/acknowledge
func (h *SysOpHandlers) AcknowledgeAlert(c *gin.Context) {
	var request struct {
		Operator string `json:"operator"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Operator == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator is required"})
		return
	}

	alert, err := h.container.AlertEngine.Acknowledge(c.Param("id"), request.Operator)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Stream handles GET /api/sysop/stream, upgrading to a websocket that
// receives status frames and alert transitions. Auth rides in the token
// query parameter because browsers can not set headers on websockets.
func (h *SysOpHandlers) Stream(c *gin.Context) {
	if config.SysopPassword != "" {
		if middleware.ValidateSysopToken(c.Query("token")) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.Sysop().Error("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.SysOpClient{Conn: conn, Send: make(chan []byte, 16)}
	h.container.Broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *SysOpHandlers) writePump(client *messaging.SysOpClient) {
	defer client.Conn.Close()
	for message := range client.Send {
		client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump drains the connection so close frames are processed, then
// unregisters the client
func (h *SysOpHandlers) readPump(client *messaging.SysOpClient) {
	defer h.container.Broadcaster.Unregister(client)
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
