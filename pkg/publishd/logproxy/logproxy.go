package logproxy

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	KibanaURL string
	Index     string
}

// MakeURL returns a link that redirects to the log search for a deployment.
func MakeURL(baseURL, deploymentID string, timestamp time.Time) string {
	return fmt.Sprintf("%s/logs?deployment_id=%s&ts=%d", strings.TrimSuffix(baseURL, "/"), deploymentID, timestamp.Unix())
}

func MakeHandler(cfg Config) http.HandlerFunc {
	formatter := kibana{
		baseURL: strings.TrimSuffix(cfg.KibanaURL, "/"),
		index:   cfg.Index,
	}
	if len(formatter.baseURL) == 0 {
		formatter.baseURL = DefaultKibanaURL
	}
	if len(formatter.index) == 0 {
		formatter.index = DefaultIndex
	}

	return func(w http.ResponseWriter, r *http.Request) {
		badRequest := func(err error) {
			log.Error(err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		}

		deploymentID := r.URL.Query().Get("deployment_id")
		timestamp := r.URL.Query().Get("ts")

		id, err := uuid.Parse(deploymentID)
		if err != nil {
			badRequest(fmt.Errorf("deployment_id '%s' is not a well-formed UUID", deploymentID))
			return
		}

		unixtime, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			badRequest(fmt.Errorf("ts '%s' is not a well-formed unix timestamp: %s", timestamp, err))
			return
		}

		url, err := formatter.format(id.String(), time.Unix(unixtime, 0).UTC())
		if err != nil {
			badRequest(err)
			return
		}

		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
