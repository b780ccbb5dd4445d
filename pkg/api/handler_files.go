package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/models"
)

// File sandbox REST endpoints, mirroring the file tools for clients that
// browse the workspace directly.

func (s *Server) handleListFiles(c *gin.Context) {
	directory := c.DefaultQuery("directory", "")
	listing, err := s.fileSvc.ListFiles(directory)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": listing})
}

func (s *Server) handleReadFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "path is required"})
		return
	}

	content, err := s.fileSvc.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "content": content})
}

func (s *Server) handleCreateFile(c *gin.Context) {
	var req models.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.fileSvc.CreateFile(req.Path, req.Content); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": req.Path})
}

func (s *Server) handleEditFile(c *gin.Context) {
	var req models.FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.fileSvc.EditFile(req.Path, req.Content, req.Append); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path})
}
