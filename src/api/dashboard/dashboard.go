package dashboard

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/kshitijsingla/chain-viewer/src/models"
)

//go:embed templates/index.html
var indexHTML string

var (
	indexTemplate = template.Must(template.New("index").Parse(indexHTML))
	pageData      PageData
)

// PageData seeds the page with the configured defaults; everything else is
// fetched from the JSON endpoints.
type PageData struct {
	DefaultSymbol string
	Version       string
}

func indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := indexTemplate.Execute(w, pageData); err != nil {
		log.Errorf("indexHandler: failed to render index: %v", err)
	}
}

func SetupHandler(router *mux.Router, config *models.ViewerConfigYAML, version string) {
	pageData = PageData{
		DefaultSymbol: config.DefaultSymbol,
		Version:       version,
	}

	router.HandleFunc("/", indexHandler)
}
