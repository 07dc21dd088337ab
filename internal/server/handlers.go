package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/oubia/medtriage/internal/rag"
	"github.com/oubia/medtriage/internal/triage"
	"github.com/oubia/medtriage/internal/vision"
)

// ChatHandler serves the triage conversation endpoint.
type ChatHandler struct {
	Workflow *triage.Workflow
	Sessions *SessionStore
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

type chatRequest struct {
	Message   string           `json:"message"`
	History   []triage.Message `json:"history"`
	Image     string           `json:"image"`
	SessionID string           `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	ctx := c.Request().Context()

	// New conversations get a server-issued session id so the client
	// can continue the thread.
	if h.Sessions != nil && req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	history := req.History
	if req.SessionID != "" && h.Sessions != nil {
		stored, err := h.Sessions.History(ctx, req.SessionID)
		if err != nil {
			log.Printf("loading session %s: %v", req.SessionID, err)
		} else {
			history = append(stored, history...)
		}
	}

	st := h.Workflow.Run(ctx, triage.Query{
		Message: req.Message,
		History: history,
		Image:   req.Image,
	})

	if req.SessionID != "" && h.Sessions != nil {
		if err := h.Sessions.Append(ctx, req.SessionID,
			triage.Message{Role: "user", Content: req.Message},
			triage.Message{Role: "assistant", Content: st.Response},
		); err != nil {
			log.Printf("saving session %s: %v", req.SessionID, err)
		}
	}

	resp := chatResponse{Response: st.Response}
	if h.Sessions != nil {
		resp.SessionID = req.SessionID
	}
	return c.JSON(http.StatusOK, resp)
}

// KnowledgeHandler serves ingestion and knowledge-graph endpoints.
type KnowledgeHandler struct {
	Retriever *rag.Service
}

func (h *KnowledgeHandler) Register(g *echo.Group) {
	g.POST("/ingest", h.ingest)
	g.GET("/knowledge-graph/query", h.graphQuery)
	g.GET("/knowledge-graph/search", h.hybridSearch)
}

type ingestRequest struct {
	Text      string `json:"text"`
	Image     string `json:"image"`
	Source    string `json:"source"`
	SaveImage *bool  `json:"save_image"`
}

func (h *KnowledgeHandler) ingest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" && req.Image == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Either text or image must be provided")
	}
	saveImage := true
	if req.SaveImage != nil {
		saveImage = *req.SaveImage
	}

	result := h.Retriever.IngestMultimodal(c.Request().Context(), req.Text, req.Image, req.Source, saveImage)
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Ingestion failed: %s", msg))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"text_chunks":    result.TextChunks,
		"image_id":       result.ImageID,
		"image_analysis": result.ImageAnalysis,
		"message":        fmt.Sprintf("Successfully ingested content with %d chunks", result.TextChunks),
	})
}

func (h *KnowledgeHandler) graphQuery(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"query":  query,
		"result": h.Retriever.GraphQuery(query),
	})
}

func (h *KnowledgeHandler) hybridSearch(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	k := h.Retriever.TopK()
	if raw := c.QueryParam("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}

	results, err := h.Retriever.HybridSearch(c.Request().Context(), query, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// ImagesHandler serves metadata of the stored medical images.
type ImagesHandler struct {
	Store *vision.Store
}

func (h *ImagesHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
}

func (h *ImagesHandler) list(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	images, err := h.Store.List(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if images == nil {
		images = []vision.Metadata{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"images": images,
		"count":  len(images),
	})
}

func (h *ImagesHandler) get(c echo.Context) error {
	meta, ok, err := h.Store.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *ImagesHandler) delete(c echo.Context) error {
	ok, err := h.Store.Delete(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
