// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package lookup

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/civiceye/civiceye/overpass"
)

// maxPhotoBytes bounds the uploaded reference photo size.
const maxPhotoBytes = 10 << 20

// Server exposes the lookup pipeline over HTTP for browser use.
type Server struct {
	pipeline *Pipeline

	// thumbnails holds the images of the most recent search per record
	// ID, so the result page can reference them by URL.
	mu         sync.Mutex
	thumbnails map[string][]byte
}

func NewServer(pipeline *Pipeline) *Server {
	return &Server{
		pipeline:   pipeline,
		thumbnails: make(map[string][]byte),
	}
}

func (s *Server) Run() error {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").ParseGlob("templates/*.html")))

	s.Register(r)

	return r.Run("localhost:8080")
}

// Register attaches the routes to a router.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/", s.searchView)
	r.POST("/api/search", s.search)
	r.GET("/api/thumbnails/:osm_type/:osm_id", s.thumbnail)
	r.POST("/api/cache/invalidate", s.invalidateCache)
	r.GET("/api/health", s.health)
}

func (s *Server) searchView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "search.html", nil)
}

type searchEntry struct {
	Entry
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type searchResponse struct {
	Entries  []searchEntry `json:"entries"`
	Ranked   bool          `json:"ranked"`
	Warnings []string      `json:"warnings,omitempty"`
}

func (s *Server) search(ctx *gin.Context) {
	req := Request{
		PostalCode:  ctx.PostForm("postal_code"),
		HouseNumber: ctx.PostForm("house_number"),
	}

	if file, err := ctx.FormFile("photo"); err == nil {
		photo, err := readUpload(file, maxPhotoBytes)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading photo: %v", err)})

			return
		}

		req.Photo = photo
	}

	result, err := s.pipeline.Search(ctx.Request.Context(), req)
	if err != nil {
		var validationErr *overpass.ValidationError
		if errors.As(err, &validationErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

		return
	}

	s.mu.Lock()
	s.thumbnails = make(map[string][]byte, len(result.Entries))

	entries := make([]searchEntry, 0, len(result.Entries))

	for _, entry := range result.Entries {
		item := searchEntry{Entry: entry}

		if entry.Thumbnail != nil {
			s.thumbnails[entry.Record.ID] = entry.Thumbnail.Image
			item.ThumbnailURL = "/api/thumbnails/" + entry.Record.ID
		}

		entries = append(entries, item)
	}
	s.mu.Unlock()

	ctx.JSON(http.StatusOK, searchResponse{
		Entries:  entries,
		Ranked:   result.Ranked,
		Warnings: result.Warnings,
	})
}

func (s *Server) thumbnail(ctx *gin.Context) {
	id := ctx.Param("osm_type") + "/" + ctx.Param("osm_id")

	s.mu.Lock()
	image, ok := s.thumbnails[id]
	s.mu.Unlock()

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no thumbnail for " + id})

		return
	}

	ctx.Data(http.StatusOK, "image/png", image)
}

type invalidateRequest struct {
	PostalCode  string `json:"postal_code"`
	HouseNumber string `json:"house_number"`
}

func (s *Server) invalidateCache(ctx *gin.Context) {
	var req invalidateRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := s.pipeline.InvalidateCache(req.PostalCode, req.HouseNumber); err != nil {
		var validationErr *overpass.ValidationError
		if errors.As(err, &validationErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}

	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("photo exceeds %d bytes", limit)
	}

	return data, nil
}
