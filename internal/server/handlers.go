package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/screenloom/screenloom/pkg/errors"
	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/producer"
	"github.com/screenloom/screenloom/pkg/screen"
)

// errorPayload is the JSON error body: a machine-readable code plus a
// user-facing message.
type errorPayload struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var payload errorPayload
	payload.Error.Code = errors.GetCode(err)
	payload.Error.Message = errors.UserMessage(err)
	writeJSON(w, statusFor(payload.Error.Code), payload)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidMarker,
		errors.ErrCodeInvalidPlatform, errors.ErrCodeInvalidName:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeProjectNotFound,
		errors.ErrCodeScreenNotFound, errors.ErrCodeArtifactNotFound:
		return http.StatusNotFound
	case errors.ErrCodeProducer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Platform string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Platform == "" {
		req.Platform = string(screen.PlatformMobile)
	}
	project, err := s.runner.Store.CreateProject(r.Context(), req.Name, req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.runner.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.runner.Store.Project(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Store.DeleteProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScreens(w http.ResponseWriter, r *http.Request) {
	records, err := s.runner.Store.Screens(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	switch format := r.URL.Query().Get("format"); format {
	case "":
		edges, err := s.runner.Store.Flows(r.Context(), projectID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, edges)
	case "dot":
		out, err := s.runner.FlowGraph(r.Context(), projectID, format)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write(out)
	case "svg":
		out, err := s.runner.FlowGraph(r.Context(), projectID, format)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(out)
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown flow format %q", format))
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Compose(r.Context(), pipeline.ComposeOptions{
		ProjectID: chi.URLParam(r, "projectID"),
		Platform:  r.URL.Query().Get("platform"),
		Refresh:   r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(res.Doc)
}

// handleGenerate streams the request body through the pipeline. Completed
// screens are pushed to live clients as the stream progresses.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	src := producer.NewReaderSource(r.Body)
	defer src.Close()

	result, err := s.runner.Generate(r.Context(), pipeline.Options{
		ProjectID: projectID,
		Logger:    s.logger,
		OnScreen: func(rec screen.Record) {
			s.hub.Broadcast(projectID, Event{Type: "screen", Screen: &rec})
		},
	}, src)
	if err != nil {
		writeError(w, err)
		return
	}

	for _, msg := range result.Messages {
		s.hub.Broadcast(projectID, Event{Type: "message", Message: msg})
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	res, err := s.runner.Compose(r.Context(), pipeline.ComposeOptions{ProjectID: projectID})
	if err != nil {
		writeError(w, err)
		return
	}
	art, err := s.publisher.Publish(r.Context(), projectID, res.Doc)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodePublish, err, "publish artifact"))
		return
	}
	writeJSON(w, http.StatusOK, art)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	_, doc, err := s.publisher.ByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(doc)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.runner.Store.Project(r.Context(), projectID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := newLiveClient(s.hub, conn, projectID)
	s.hub.register <- client

	go client.writePump()
	client.readPump()
}
