package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"posture-worker-go/internal/models"
	"posture-worker-go/internal/services"
	"posture-worker-go/internal/services/analyzer"
	"posture-worker-go/internal/services/session"
)

// AnalysisHandler handles posture analysis requests
type AnalysisHandler struct {
	container *services.ServiceContainer
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(container *services.ServiceContainer) *AnalysisHandler {
	return &AnalysisHandler{container: container}
}

type ModesResponse struct {
	Modes map[string][]string `json:"modes"`
}

// @Summary Analyze posture
// @Description Upload an image or video and classify the posture per frame against the selected rule set
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpg, png) or video (mp4, avi, mov)"
// @Param posture_type formData string true "Posture type" Enums(squat, sitting)
// @Success 200 {object} models.SessionResult
// @Failure 400 {object} map[string]string
// @Failure 422 {object} models.SessionResult
// @Failure 500 {object} map[string]string
// @Router /analysis [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	mode, err := models.ParseMode(c.PostForm("posture_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > h.container.Config.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file exceeds maximum upload size"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file has no extension"})
		return
	}

	sessionID := uuid.New().String()

	inputPath := filepath.Join(h.container.Config.UploadDir, sessionID+ext)
	if err := c.SaveUploadedFile(fileHeader, inputPath); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
		return
	}
	defer os.Remove(inputPath)

	result, err := h.runSession(c, sessionID, mode, inputPath, ext)
	if err != nil && result == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.container.Messaging.PublishSessionResult(result)

	switch result.State {
	case models.StateSucceeded:
		c.JSON(http.StatusOK, result)
	case models.StateFailedNoPose:
		c.JSON(http.StatusUnprocessableEntity, result)
	default:
		c.JSON(http.StatusInternalServerError, result)
	}
}

// runSession wires up the per-session pipeline: source, sink, a fresh pose
// provider, and the aggregator. The provider is owned by this session alone.
func (h *AnalysisHandler) runSession(c *gin.Context, sessionID string, mode models.PostureMode, inputPath, ext string) (*models.SessionResult, error) {
	src, err := session.OpenSource(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	outputName := fmt.Sprintf("%s_annotated%s", sessionID, ext)
	outputPath := filepath.Join(h.container.Config.OutputDir, outputName)

	sink, err := session.OpenSink(src, outputPath)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer sink.Close()

	provider, err := h.container.NewProvider()
	if err != nil {
		return nil, fmt.Errorf("start pose provider: %w", err)
	}
	defer provider.Close()

	frameAnalyzer := analyzer.New(provider, h.container.Engine, h.container.Config)
	aggregator := session.NewAggregator(frameAnalyzer)

	result, err := aggregator.Run(c.Request.Context(), sessionID, mode, src, sink)
	if result != nil && result.State == models.StateSucceeded {
		result.OutputMedia = outputName
	}
	return result, err
}

// @Summary List posture types
// @Description List the supported posture types and the measurements each evaluates
// @Tags analysis
// @Produce json
// @Success 200 {object} ModesResponse
// @Router /analysis/modes [get]
func (h *AnalysisHandler) GetModes(c *gin.Context) {
	modes := make(map[string][]string)
	for _, mode := range h.container.Engine.Modes() {
		modes[string(mode)] = h.container.Engine.Measurements(mode)
	}
	c.JSON(http.StatusOK, ModesResponse{Modes: modes})
}

// @Summary Download annotated media
// @Description Download the annotated output media produced by a completed analysis
// @Tags analysis
// @Produce application/octet-stream
// @Param name path string true "Output media name from the analysis response"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /analysis/media/{name} [get]
func (h *AnalysisHandler) GetMedia(c *gin.Context) {
	name := c.Param("name")
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media name"})
		return
	}

	mediaPath := filepath.Join(h.container.Config.OutputDir, name)
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}

	if session.IsVideo(name) {
		c.Header("Content-Type", "video/mp4")
		c.Header("Accept-Ranges", "bytes")
	}
	c.File(mediaPath)
}
