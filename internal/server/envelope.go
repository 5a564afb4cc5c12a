package server

import (
	"encoding/json"
	"net/http"

	"github.com/BenWassa/hearth/internal/provider"
)

type errorBody struct {
	Code    provider.Code `json:"code"`
	Message string        `json:"message"`
}

// envelope is the body of every API response.
type envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

// writeError projects err onto the taxonomy. Upstream details such as the
// raw body never reach the client.
func writeError(w http.ResponseWriter, err error) {
	ue := provider.AsUpstream(err)
	status := ue.Status
	if status == 0 {
		status = ue.Code.Status()
	}
	writeJSON(w, status, envelope{
		OK:    false,
		Error: &errorBody{Code: ue.Code, Message: ue.Message},
	})
}
