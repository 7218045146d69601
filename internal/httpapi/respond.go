package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

// ответ всегда в конверте: успех — {"success":true,...},
// ошибка — {"error":"сообщение"}
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readBody разбирает JSON-тело. Пустое или битое тело — не ошибка,
// а пустой объект: валидация полей дальше скажет, чего не хватает.
func readBody(r *http.Request, dst any) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, dst)
}
