package chainapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kshitijsingla/chain-viewer/src/api"
)

var chainRequestExecutor *ChainRequestExecutor

func underlyingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		api.ApiRequestHandler(&UnderlyingRequest{}, chainRequestExecutor, w, r)
	} else {
		w.WriteHeader(405)
	}
}

func expirationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		api.ApiRequestHandler(&ExpirationsRequest{}, chainRequestExecutor, w, r)
	} else {
		w.WriteHeader(405)
	}
}

func chainHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		api.ApiRequestHandler(&ChainRequest{}, chainRequestExecutor, w, r)
	} else {
		w.WriteHeader(405)
	}
}

func SetupHandler(router *mux.Router, executor *ChainRequestExecutor) {
	chainRequestExecutor = executor

	router.HandleFunc("/underlying", underlyingHandler)
	router.HandleFunc("/expirations", expirationsHandler)
	router.HandleFunc("/chain", chainHandler)
}
