package logproxy

import (
	"fmt"
	"time"

	"gopkg.in/sakura-internet/go-rison.v3"
)

const (
	DefaultKibanaURL = "https://logs.adeo.no/app/kibana"
	DefaultIndex     = "0f8b4a50-3c1d-11ee-be56-0242ac120002"
	discoverFormat   = "%s#/discover?_a=%s&_g=%s"
	searchQuery      = "+correlation_id:\"%s\" -level:\"trace\" -level:\"debug\""
)

type query struct {
	Language string `json:"language"`
	Query    string `json:"query"`
}

type appState struct {
	Index string `json:"index"`
	Query query  `json:"query"`
}

type timeRange struct {
	From string `json:"from"`
	Mode string `json:"mode"`
	To   string `json:"to"`
}

type globalState struct {
	Time timeRange `json:"time"`
}

// dayOf returns the UTC day containing ts.
func dayOf(ts time.Time) timeRange {
	day := time.Hour * 24
	start := ts.Truncate(day)
	end := start.Add(day)

	return timeRange{
		From: start.Format(time.RFC3339),
		Mode: "absolute",
		To:   end.Format(time.RFC3339),
	}
}

type kibana struct {
	baseURL string
	index   string
}

func (k kibana) format(deploymentID string, ts time.Time) (string, error) {
	as, err := rison.Encode(appState{
		Index: k.index,
		Query: query{
			Language: "lucene",
			Query:    fmt.Sprintf(searchQuery, deploymentID),
		},
	}, rison.Rison)
	if err != nil {
		return "", fmt.Errorf("encode search: %w", err)
	}

	gs, err := rison.Encode(globalState{Time: dayOf(ts)}, rison.Rison)
	if err != nil {
		return "", fmt.Errorf("encode time range: %w", err)
	}

	return fmt.Sprintf(discoverFormat, k.baseURL, string(as), string(gs)), nil
}
