package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/ingest"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/search"
)

// ingestRequest asks the server to read documents from a local path (file or
// directory) or a web URL. Flush controls whether the batch is written to the
// store immediately; until then it is not visible to queries.
type ingestRequest struct {
	Path  string `json:"path,omitempty"`
	URL   string `json:"url,omitempty"`
	Flush bool   `json:"flush,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Path == "") == (req.URL == "") {
		s.respondError(w, http.StatusBadRequest, "exactly one of path or url is required")
		return
	}

	var result ingest.Result
	switch {
	case req.URL != "":
		added, err := s.ingester.IngestURL(r.Context(), req.URL)
		if err != nil {
			s.logger.Error("url ingestion failed", zap.String("url", req.URL), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if added {
			result.Added = 1
		} else {
			result.Skipped = 1
		}
	default:
		info, err := os.Stat(req.Path)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if info.IsDir() {
			result, err = s.ingester.IngestDirectory(r.Context(), req.Path,
				s.config.Ingest.Extensions, s.config.Ingest.RecursiveOrDefault())
			if err != nil {
				s.logger.Error("directory ingestion failed", zap.String("path", req.Path), zap.Error(err))
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		} else {
			added, err := s.ingester.IngestFile(req.Path)
			if err != nil {
				s.logger.Error("file ingestion failed", zap.String("path", req.Path), zap.Error(err))
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if added {
				result.Added = 1
			} else {
				result.Skipped = 1
			}
		}
	}

	if req.Flush {
		if err := s.engine.Flush(r.Context()); err != nil {
			s.logger.Error("flush failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Flush(r.Context()); err != nil {
		s.logger.Error("flush failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// searchRequest mirrors models.SearchQuery but distinguishes unset fields so
// configured defaults apply.
type searchRequest struct {
	Query string   `json:"query"`
	Mode  string   `json:"mode,omitempty"`
	Above *float64 `json:"above,omitempty"`
	Top   *int     `json:"top,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query := models.SearchQuery{
		Query: req.Query,
		Mode:  req.Mode,
		Above: s.config.Search.DefaultAbove,
		Top:   s.config.Search.DefaultTop,
	}
	if req.Above != nil {
		query.Above = *req.Above
	}
	if req.Top != nil {
		query.Top = *req.Top
	}
	if max := s.config.Search.MaxTop; max > 0 && (query.Top < 0 || query.Top > max) {
		query.Top = max
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request",
		zap.String("query", query.Query),
		zap.String("mode", query.Mode),
	)

	start := time.Now()
	response := &models.SearchResponse{Query: query.Query, Mode: query.Mode}
	switch query.Mode {
	case models.ModeBoolean:
		docs, err := s.engine.BooleanQuery(r.Context(), query.Query)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.Documents = docs.Sorted()
		response.Total = len(response.Documents)
	case models.ModeVector:
		results, err := s.engine.VectorQuery(r.Context(), query.Query, query.Above, query.Top)
		if err != nil {
			s.logger.Error("vector search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		response.Results = results
		response.Total = len(results)
	}
	response.QueryTime = time.Since(start).Milliseconds()
	s.respondJSON(w, http.StatusOK, response)
}

// statusResponse extends the engine status with storage details.
type statusResponse struct {
	search.Status
	DatabasePath string `json:"database_path,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, statusResponse{
		Status:       status,
		DatabasePath: s.config.Storage.DatabasePath,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
