package route

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/xiaobei/singbox-manager/log"

	"github.com/go-chi/render"
)

type Log struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// getLogs streams log events as JSON lines until the client goes away.
func getLogs(w http.ResponseWriter, r *http.Request) {
	levelText := r.URL.Query().Get("level")
	if levelText == "" {
		levelText = "info"
	}

	level, ok := log.LogLevelMapping[levelText]
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrBadRequest)
		return
	}

	sub := log.Subscribe()
	defer log.UnSubscribe(sub)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	buf := &bytes.Buffer{}
	for {
		var event log.Event
		select {
		case <-r.Context().Done():
			return
		case elm, open := <-sub:
			if !open {
				return
			}
			event = elm
		}
		if event.LogLevel < level {
			continue
		}

		buf.Reset()
		if err := json.NewEncoder(buf).Encode(Log{
			Type:    event.Type(),
			Payload: event.Payload,
		}); err != nil {
			return
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}
