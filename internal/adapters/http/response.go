package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the uniform body for every document API response. Success
// responses carry Data or Message; error responses carry a machine-readable
// Code next to the human-readable Message.
type envelope struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("response encode failed",
			"module", "http",
			"layer", "adapter",
			"error", err.Error(),
		)
	}
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, statusCode, envelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, envelope{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeEnvelope(w, statusCode, envelope{Status: "error", Code: code, Message: message})
}
