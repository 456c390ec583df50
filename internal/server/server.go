// Package server is the HTTP adapter over the processing core. The core
// packages never import gin; this layer only decodes requests, invokes the
// pipeline or the draft store, and maps error sentinels to HTTP statuses.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/export"
	"github.com/mestsky-urad/zuvp-pipeline/internal/extract"
	"github.com/mestsky-urad/zuvp-pipeline/internal/pipeline"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

type Server struct {
	logger  *slog.Logger
	proc    *pipeline.Processor
	drafts  store.DraftRepository
	cache   *extract.Cache
	exports *export.Service
}

func New(logger *slog.Logger, proc *pipeline.Processor, drafts store.DraftRepository, cache *extract.Cache, exports *export.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, proc: proc, drafts: drafts, cache: cache, exports: exports}
}

// Router builds the gin engine with all API routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	api.GET("/drafts", s.listDrafts)
	api.GET("/drafts/:id", s.getDraft)
	api.POST("/approve/:id", s.approve)
	api.GET("/download/:id/:docType", s.download)
	api.GET("/export", s.exportDrafts)
	api.POST("/clear-cache", s.clearCache)
	api.POST("/clear-drafts", s.clearDrafts)
	return r
}

func (s *Server) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("server.upload.close_error", "error", cerr)
		}
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	outcome, err := s.proc.ProcessUpload(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) listDrafts(c *gin.Context) {
	drafts, err := s.drafts.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

func (s *Server) getDraft(c *gin.Context) {
	draft, err := s.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) approve(c *gin.Context) {
	draft, err := s.drafts.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(draft.Status), "draft_id": draft.ID})
}

func (s *Server) download(c *gin.Context) {
	id := c.Param("id")
	docType := c.Param("docType")
	path, err := store.DocumentPath(c.Request.Context(), s.drafts, id, docType)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.FileAttachment(path, docType+"_"+id+filepath.Ext(path))
}

func (s *Server) exportDrafts(c *gin.Context) {
	data, err := s.exports.ExportDraftsXLSX(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="drafts.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) clearCache(c *gin.Context) {
	removed, err := s.cache.Clear()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": removed})
}

func (s *Server) clearDrafts(c *gin.Context) {
	removed, err := s.drafts.DeleteAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": removed})
}

// fail maps error sentinels onto HTTP statuses so callers can tell "fix
// your document" from "try again later".
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrIngestion), errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrRender):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		s.logger.Error("server.request_failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
