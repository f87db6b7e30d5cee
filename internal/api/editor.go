package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "projectID")

		blocks, total, err := cfg.Service.Blocks(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, TimelineResponse{Blocks: blocks, TotalDuration: total})
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "projectID")

		t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "query parameter t must be a number", "BAD_REQUEST")
			return
		}

		state, err := cfg.Service.At(r.Context(), id, t)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, state)
	}
}

// pointerHandler feeds one gesture event into the project's editor
// session. Moves answer with the live preview and push it to every
// websocket client; up answers with what the gesture resolved to.
func pointerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "projectID")

		var req PointerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sess, err := cfg.Service.Session(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if req.Geometry != nil {
			sess.SetGeometry(*req.Geometry)
		}

		switch req.Type {
		case "down":
			sess.PointerDown(req.X)
			resp := PointerResponse{Dragging: sess.Dragging()}
			if preview, ok := sess.Preview(); ok {
				pr := PreviewToResponse(preview)
				resp.Preview = &pr
			}
			WriteJSON(w, http.StatusOK, resp)

		case "move":
			sess.PointerMove(req.X)
			resp := PointerResponse{Dragging: sess.Dragging()}
			if preview, ok := sess.Preview(); ok {
				pr := PreviewToResponse(preview)
				resp.Preview = &pr
				if cfg.Hub != nil {
					cfg.Hub.PreviewChanged(id, preview)
				}
			}
			WriteJSON(w, http.StatusOK, resp)

		case "up":
			result, err := sess.PointerUp(req.X)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			res := ResultToResponse(result)
			WriteJSON(w, http.StatusOK, PointerResponse{Dragging: false, Result: &res})

		case "cancel":
			sess.Cancel()
			WriteJSON(w, http.StatusOK, PointerResponse{Dragging: false})

		default:
			WriteError(w, http.StatusBadRequest, "unknown pointer event type", "BAD_REQUEST")
		}
	}
}
