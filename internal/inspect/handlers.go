package inspect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/skellyview/pkg/reactive"
	"github.com/vango-dev/skellyview/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	st, ok := s.reg.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown store "+name)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":   st.Name(),
		"fields": st.Fields(),
	})
}

func (s *Server) handleTriggerFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Tracker == "" {
		s.writeError(w, http.StatusBadRequest, "tracker must not be empty")
		return
	}

	s.reg.Fetch().TriggerDataFetch(req.Tracker)
	s.logger.Info("fetch requested", "tracker", req.Tracker)
	s.writeJSON(w, http.StatusAccepted, s.reg.Fetch().Snapshot())
}

func (s *Server) handleResetFetch(w http.ResponseWriter, r *http.Request) {
	s.reg.Fetch().ResetFetchTracker()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnimation(w http.ResponseWriter, r *http.Request) {
	var req animationRequest
	if !s.decode(w, r, &req) {
		return
	}

	var frame *store.FrameNumber
	if len(req.Frame) > 0 {
		var f store.FrameNumber
		if err := json.Unmarshal(req.Frame, &f); err != nil {
			s.writeError(w, http.StatusBadRequest, "frame must be an integer or null")
			return
		}
		frame = &f
	}

	anim := s.reg.Animation()
	reactive.Batch(func() {
		if req.NumFrames != nil {
			anim.SetNumFrames(*req.NumFrames)
		}
		if frame != nil {
			if n, ok := frame.Int(); ok {
				anim.SetFrameNumber(n)
			} else {
				anim.ClearFrameNumber()
			}
		}
		if req.FPS != nil {
			anim.SetFPS(*req.FPS)
		}
		if req.Playing != nil {
			anim.SetPlaying(*req.Playing)
		}
	})

	s.writeJSON(w, http.StatusOK, anim.Snapshot())
}

// decode reads a JSON body into v, writing a 400 response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
