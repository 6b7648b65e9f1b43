package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Document processing
	mux.HandleFunc("/api/process", s.app.ProcessHandler.ProcessTextHandler)      // POST - process text content
	mux.HandleFunc("/api/process/file", s.app.ProcessHandler.ProcessFileHandler) // POST - process an uploaded file
	mux.HandleFunc("/api/classify", s.app.ProcessHandler.ClassifyHandler)        // POST - classification only

	// API routes - Memory history
	mux.HandleFunc("/api/memory", s.app.MemoryHandler.ListHandler) // GET - history listing
	mux.HandleFunc("/api/memory/", s.app.MemoryHandler.GetHandler) // GET /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path != "/" {
			s.app.APIHandler.NotFoundHandler(w, r)
			return
		}
		s.app.APIHandler.HealthHandler(w, r)
	})

	return mux
}
