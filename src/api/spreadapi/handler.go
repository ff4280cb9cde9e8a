package spreadapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kshitijsingla/chain-viewer/src/api"
)

var spreadRequestExecutor *SpreadRequestExecutor

func spreadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == "POST" {
		api.ApiRequestHandler(&SpreadRequest{}, spreadRequestExecutor, w, r)
	} else {
		w.WriteHeader(405)
	}
}

func SetupHandler(router *mux.Router, executor *SpreadRequestExecutor) {
	spreadRequestExecutor = executor

	router.HandleFunc("", spreadHandler)
}
