package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"code_practice/internal/api/middleware"
	"code_practice/internal/app/service"
	"code_practice/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func viewerFrom(r *http.Request) service.Viewer {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	return service.Viewer{UserID: userID, Role: role}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
