package routes

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Message string `json:"message"`
}

func SendStructResponse(w http.ResponseWriter, v any) {
	SendStatusResponse(w, http.StatusOK, v)
}

func SendStatusResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func SendError(w http.ResponseWriter, status int, message string) {
	SendStatusResponse(w, status, errorBody{Message: message})
}
