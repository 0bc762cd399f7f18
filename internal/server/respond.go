package server

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the fixed user message for err's kind; causes stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, common.HTTPStatus(err), errorBody{Error: common.UserMessage(err)})
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
