package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"geoint-analysis-service/audio"
	"geoint-analysis-service/comparison"
	"geoint-analysis-service/demo"
	"geoint-analysis-service/export"
	"geoint-analysis-service/geocode"
	"geoint-analysis-service/geometry"
	"geoint-analysis-service/models"
	"geoint-analysis-service/orchestrator"
	"geoint-analysis-service/session"
)

// SessionHeader identifies the caller's session. A request without it
// gets a fresh session whose id is echoed back in the same header.
const SessionHeader = "X-Session-ID"

// Handlers holds the HTTP surface of the analysis service.
type Handlers struct {
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
	demos    *demo.Loader
	geocoder *geocode.CachedService
}

// NewHandlers creates new HTTP handlers.
func NewHandlers(sessions *session.Manager, orch *orchestrator.Orchestrator, demos *demo.Loader, geocoder *geocode.CachedService) *Handlers {
	return &Handlers{sessions: sessions, orch: orch, demos: demos, geocoder: geocoder}
}

// RegisterRoutes mounts all routes on the given group.
func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	s := r.Group("/session")
	s.GET("", h.GetState)
	s.DELETE("", h.DropSession)
	s.POST("/mode", h.SwitchMode)
	s.PUT("/metadata", h.UpdateMetadata)
	s.POST("/metadata/geocode", h.GeocodeMetadata)
	s.POST("/images/:slot", h.LoadImage)
	s.DELETE("/images/:slot", h.ClearImage)
	s.POST("/demo", h.LoadDemo)
	s.POST("/analyze", h.Analyze)
	s.POST("/chat", h.Chat)
	s.POST("/verify", h.VerifyLocation)
	s.POST("/briefing", h.Briefing)
	s.GET("/export", h.ExportJSON)
	s.GET("/report", h.PrintableReport)
	s.GET("/logs", h.GetLogs)
	s.GET("/overlays", h.GetOverlays)
	s.GET("/comparison", h.GetComparison)
	s.POST("/comparison/flicker", h.SetFlicker)
	s.POST("/comparison/drag", h.Drag)
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "geoint-analysis-service",
		"provider": h.orch.SourceName(),
	})
}

// session resolves the caller's session and echoes its id.
func (h *Handlers) session(c *gin.Context) *session.Session {
	sess := h.sessions.GetOrCreate(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sess.ID)
	return sess
}

// stateView is the session state as served to clients, with image slots
// reduced to data URLs.
func stateView(sess *session.Session) gin.H {
	s := sess.Store.Snapshot()
	images := gin.H{}
	if !s.AnomalyImage.IsZero() {
		images["anomaly"] = s.AnomalyImage.DataURL()
	}
	if !s.ImageBefore.IsZero() {
		images["before"] = s.ImageBefore.DataURL()
	}
	if !s.ImageAfter.IsZero() {
		images["after"] = s.ImageAfter.DataURL()
	}
	return gin.H{
		"state":      s,
		"images":     images,
		"comparison": sess.Renderer.Snapshot(),
	}
}

// GetState returns the full session state.
func (h *Handlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, stateView(h.session(c)))
}

// DropSession discards the caller's session and its timers.
func (h *Handlers) DropSession(c *gin.Context) {
	if id := c.GetHeader(SessionHeader); id != "" {
		h.sessions.Drop(id)
	}
	c.Status(http.StatusNoContent)
}

// SwitchMode changes the operating mode. Switching to the mode already
// active is a no-op; switching away clears results and chat but keeps
// images and metadata.
func (h *Handlers) SwitchMode(c *gin.Context) {
	var req struct {
		Mode models.Mode `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.Mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode"})
		return
	}
	sess := h.session(c)
	before := sess.Store.Snapshot().Mode
	sess.Store.Dispatch(session.SwitchMode{Mode: req.Mode})
	if req.Mode != before {
		// The old mode's briefing must not keep playing into the new mode.
		sess.Player.Stop()
		sess.Store.AppendLog(fmt.Sprintf("System mode switched to: %s", req.Mode), models.LogWarning)
	}
	c.JSON(http.StatusOK, stateView(sess))
}

// UpdateMetadata replaces the analysis metadata.
func (h *Handlers) UpdateMetadata(c *gin.Context) {
	var meta models.AnalysisMetadata
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid metadata"})
		return
	}
	sess := h.session(c)
	sess.Store.Dispatch(session.EditMetadata{Metadata: meta})
	c.JSON(http.StatusOK, stateView(sess))
}

// GeocodeMetadata resolves the metadata coordinates to a region name and
// writes it back. An explicit region name set by the operator is not
// overwritten unless overwrite is requested.
func (h *Handlers) GeocodeMetadata(c *gin.Context) {
	var req struct {
		Overwrite bool `json:"overwrite"`
	}
	// An empty body means no overwrite.
	_ = c.ShouldBindJSON(&req)

	sess := h.session(c)
	meta := sess.Store.Snapshot().Metadata

	lat, latErr := strconv.ParseFloat(meta.Latitude, 64)
	lng, lngErr := strconv.ParseFloat(meta.Longitude, 64)
	if !meta.HasCoordinates() || latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates required for region lookup"})
		return
	}

	loc, err := h.geocoder.Lookup(lat, lng)
	if err != nil {
		log.WithError(err).Warn("region lookup failed")
		sess.Store.AppendLog("Region lookup failed.", models.LogWarning)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Region lookup failed"})
		return
	}
	name := loc.RegionName()
	if name == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No region found at coordinates"})
		return
	}

	if meta.RegionName == "" || req.Overwrite {
		meta.RegionName = name
		sess.Store.Dispatch(session.EditMetadata{Metadata: meta})
		sess.Store.AppendLog(fmt.Sprintf("Region resolved: %s", name), models.LogSuccess)
	}
	c.JSON(http.StatusOK, gin.H{
		"region": name,
		"state":  sess.Store.Snapshot(),
	})
}

func slotFromParam(p string) (session.Slot, bool) {
	switch p {
	case "anomaly":
		return session.SlotAnomaly, true
	case "before":
		return session.SlotBefore, true
	case "after":
		return session.SlotAfter, true
	}
	return "", false
}

// LoadImage stores an uploaded image in the named slot. The body carries
// the image as a data URL or bare base64.
func (h *Handlers) LoadImage(c *gin.Context) {
	slot, ok := slotFromParam(c.Param("slot"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image slot"})
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image payload"})
		return
	}
	img, err := models.ParseDataURL(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image payload"})
		return
	}

	sess := h.session(c)
	sess.Store.Dispatch(session.LoadImage{Slot: slot, Image: img})
	sess.Store.AppendLog(fmt.Sprintf("Image loaded into %s slot.", slot), models.LogInfo)
	c.JSON(http.StatusOK, stateView(sess))
}

// ClearImage empties the named slot and invalidates the dependent result.
func (h *Handlers) ClearImage(c *gin.Context) {
	slot, ok := slotFromParam(c.Param("slot"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image slot"})
		return
	}
	sess := h.session(c)
	sess.Store.Dispatch(session.ClearImage{Slot: slot})
	c.JSON(http.StatusOK, stateView(sess))
}

// LoadDemo loads the built-in scenario for the current mode: imagery plus
// the matching metadata preset.
func (h *Handlers) LoadDemo(c *gin.Context) {
	sess := h.session(c)
	st := sess.Store
	snap := st.Snapshot()

	defer st.Dispatch(session.SetLoading{})

	switch snap.Mode {
	case models.ModeAnomalyHunter:
		st.Dispatch(session.SetLoading{Active: true, Message: "ESTABLISHING UPLINK TO MARS RECONNAISSANCE ORBITER..."})
		st.AppendLog("Sequence initiated: DEMO_MARS_SURFACE", models.LogInfo)
		img, err := h.demos.AnomalyScene(c.Request.Context())
		if err != nil {
			st.AppendLog("Uplink failed: Connection refused.", models.LogError)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch demo imagery"})
			return
		}
		st.Dispatch(session.LoadImage{Slot: session.SlotAnomaly, Image: img})
		st.Dispatch(session.EditMetadata{Metadata: demo.AnomalyMetadata})
		st.AppendLog("Telemetry data buffered.", models.LogSuccess)
	case models.ModeChangeTracker:
		st.Dispatch(session.SetLoading{Active: true, Message: "RETRIEVING ARCHIVAL SATELLITE DATASETS..."})
		st.AppendLog("Sequence initiated: DEMO_GLACIAL_MELT", models.LogInfo)
		before, after, err := h.demos.ChangeScene(c.Request.Context())
		if err != nil {
			st.AppendLog("Data retrieval error.", models.LogError)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch demo imagery"})
			return
		}
		st.Dispatch(session.LoadImage{Slot: session.SlotBefore, Image: before})
		st.Dispatch(session.LoadImage{Slot: session.SlotAfter, Image: after})
		st.Dispatch(session.EditMetadata{Metadata: demo.ChangeMetadata})
		st.AppendLog("Historical timeline data successfully retrieved.", models.LogSuccess)
	}
	c.JSON(http.StatusOK, stateView(sess))
}

// Analyze runs the analysis for the current mode.
func (h *Handlers) Analyze(c *gin.Context) {
	sess := h.session(c)
	snap := sess.Store.Snapshot()

	var err error
	switch snap.Mode {
	case models.ModeAnomalyHunter:
		_, err = h.orch.RunAnomalyAnalysis(sess.Store)
	case models.ModeChangeTracker:
		_, err = h.orch.RunChangeAnalysis(sess.Store)
	}
	switch {
	case err == orchestrator.ErrNoImage:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Load imagery before running analysis"})
		return
	case err == orchestrator.ErrStale:
		c.JSON(http.StatusConflict, gin.H{"error": "Analysis context changed; result discarded"})
		return
	case err != nil:
		log.WithError(err).Error("analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis failed"})
		return
	}
	c.JSON(http.StatusOK, stateView(sess))
}

// Chat handles a follow-up question about the current analysis.
func (h *Handlers) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing message"})
		return
	}
	sess := h.session(c)
	if _, err := h.orch.AskFollowUp(sess.Store, req.Message); err != nil {
		// The transport-failure reply is already in the chat; serve it.
		log.WithError(err).Warn("chat request failed")
	}
	c.JSON(http.StatusOK, gin.H{"chat": sess.Store.Snapshot().Chat})
}

// VerifyLocation cross-references the anomaly image against map data at
// the metadata coordinates.
func (h *Handlers) VerifyLocation(c *gin.Context) {
	sess := h.session(c)
	answer, err := h.orch.VerifyLocation(sess.Store)
	switch {
	case err == orchestrator.ErrNoImage:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Load an image before verifying"})
		return
	case err == orchestrator.ErrStale:
		c.JSON(http.StatusConflict, gin.H{"error": "Session changed; verification discarded"})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verification": answer,
		"state":        sess.Store.Snapshot(),
	})
}

// Briefing toggles the audio briefing. Starting synthesizes the current
// summary and returns it as a WAV stream; if audio is already playing the
// call stops it instead.
func (h *Handlers) Briefing(c *gin.Context) {
	sess := h.session(c)
	st := sess.Store

	if sess.Player.Playing() {
		sess.Player.Stop()
		st.Dispatch(session.SetAudioPlaying{})
		st.AppendLog("Audio output stream halted.", models.LogInfo)
		c.Status(http.StatusNoContent)
		return
	}

	result := st.Snapshot().CurrentResult()
	summary := ""
	switch r := result.(type) {
	case *models.AnomalyResponse:
		summary = r.Summary
	case *models.ChangeResponse:
		summary = r.Summary
	}
	if summary == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Run an analysis before requesting a briefing"})
		return
	}

	st.AppendLog("Initializing audio synthesis (Gemini TTS)...", models.LogInfo)
	pcm, err := h.orch.SynthesizeBriefing(summary)
	if err != nil {
		log.WithError(err).Error("audio synthesis failed")
		st.AppendLog("Audio synthesis failed.", models.LogError)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Audio synthesis failed"})
		return
	}

	sess.Player.Play(pcm, func() {
		st.Dispatch(session.SetAudioPlaying{})
	})
	st.Dispatch(session.SetAudioPlaying{Playing: true})
	st.AppendLog("Audio output stream active.", models.LogSuccess)

	c.Header("Content-Disposition", `inline; filename="briefing.wav"`)
	c.Data(http.StatusOK, "audio/wav", audio.WAV(pcm))
}

// ExportJSON serves the current result as a downloadable JSON report.
func (h *Handlers) ExportJSON(c *gin.Context) {
	sess := h.session(c)
	now := time.Now()

	data, err := export.MarshalResult(sess.Store.Snapshot())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No analysis result to export"})
		return
	}
	sess.Store.AppendLog("Data exported to JSON.", models.LogSuccess)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(now)))
	c.Data(http.StatusOK, "application/json", data)
}

// PrintableReport serves the self-contained HTML dossier.
func (h *Handlers) PrintableReport(c *gin.Context) {
	sess := h.session(c)
	out, err := export.RenderPrintable(sess.Store.Snapshot(), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No analysis result to print"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// GetLogs returns the bounded system log.
func (h *Handlers) GetLogs(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, gin.H{"logs": sess.Store.Snapshot().Logs})
}

// GetOverlays computes render-ready overlays for the current anomaly
// result: percentage rects in box view, glow regions in heatmap view.
func (h *Handlers) GetOverlays(c *gin.Context) {
	view := geometry.ViewMode(c.DefaultQuery("view", string(geometry.ViewBox)))
	if view != geometry.ViewBox && view != geometry.ViewHeatmap {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid view mode"})
		return
	}
	aspect, err := strconv.ParseFloat(c.DefaultQuery("aspect", "1"), 64)
	if err != nil || aspect <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid aspect ratio"})
		return
	}

	sess := h.session(c)
	snap := sess.Store.Snapshot()
	if snap.AnomalyResult == nil {
		c.JSON(http.StatusOK, gin.H{"view": view, "overlays": []gin.H{}})
		return
	}

	overlays := make([]gin.H, 0, len(snap.AnomalyResult.Anomalies))
	for i, a := range snap.AnomalyResult.Anomalies {
		if !geometry.HasBox(a.Box2D) {
			continue
		}
		o := gin.H{
			"index":      i,
			"label":      a.Label,
			"confidence": a.Confidence,
		}
		switch view {
		case geometry.ViewBox:
			o["rect"] = geometry.BoxRect(a.Box2D)
		case geometry.ViewHeatmap:
			o["region"] = geometry.HeatmapFor(a.Box2D, a.Confidence, aspect)
		}
		overlays = append(overlays, o)
	}
	c.JSON(http.StatusOK, gin.H{"view": view, "overlays": overlays})
}

// GetComparison returns the comparison renderer snapshot.
func (h *Handlers) GetComparison(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, sess.Renderer.Snapshot())
}

// SetFlicker toggles the comparison renderer between flicker and slider.
func (h *Handlers) SetFlicker(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess := h.session(c)
	sess.Renderer.SetFlicker(req.Enabled)
	c.JSON(http.StatusOK, sess.Renderer.Snapshot())
}

// Drag routes pointer gestures to the comparison slider.
func (h *Handlers) Drag(c *gin.Context) {
	var req struct {
		Action         string  `json:"action"` // start | move | end
		ClientX        float64 `json:"clientX"`
		ContainerLeft  float64 `json:"containerLeft"`
		ContainerWidth float64 `json:"containerWidth"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	sess := h.session(c)
	switch req.Action {
	case "start":
		sess.Renderer.BeginDrag()
	case "move":
		sess.Renderer.MoveTo(req.ClientX, comparison.ContainerRect{Left: req.ContainerLeft, Width: req.ContainerWidth})
	case "end":
		sess.Renderer.EndDrag()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drag action"})
		return
	}
	c.JSON(http.StatusOK, sess.Renderer.Snapshot())
}
