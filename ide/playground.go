// Package ide serves the GraphQL Playground so browsers pointed at the
// GraphQL endpoint get an explorer wired to both the HTTP and websocket
// transports.
package ide

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
)

// PlaygroundVersion the default version to use
var PlaygroundVersion = "1.7.28"

// PlaygroundOptions configure the playground page. Empty endpoints are
// derived from the request.
type PlaygroundOptions struct {
	Version              string
	SSL                  bool
	Endpoint             string
	SubscriptionEndpoint string
}

// NewDefaultPlaygroundOptions returns playground options with the default version
func NewDefaultPlaygroundOptions() *PlaygroundOptions {
	return &PlaygroundOptions{
		Version: PlaygroundVersion,
	}
}

// NewDefaultSSLPlaygroundOptions returns playground options that always
// subscribe over wss
func NewDefaultSSLPlaygroundOptions() *PlaygroundOptions {
	return &PlaygroundOptions{
		Version: PlaygroundVersion,
		SSL:     true,
	}
}

type playgroundData struct {
	PlaygroundVersion    string
	Endpoint             string
	SubscriptionEndpoint string
	SetTitle             bool
}

var playground = template.Must(template.New("Playground").Parse(playgroundTemplate))

// subscriptionScheme picks wss when the request came in over TLS directly or
// through a proxy
func subscriptionScheme(config *PlaygroundOptions, r *http.Request) string {
	if config.SSL || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "wss"
	}
	return "ws"
}

// RenderPlayground renders the Playground GUI
func RenderPlayground(config *PlaygroundOptions, w http.ResponseWriter, r *http.Request) {
	if config == nil {
		config = NewDefaultPlaygroundOptions()
	}

	d := playgroundData{
		Endpoint:             r.URL.Path,
		SubscriptionEndpoint: fmt.Sprintf("%s://%s%s", subscriptionScheme(config, r), r.Host, r.URL.Path),
		SetTitle:             true,
	}

	if config.Endpoint != "" {
		d.Endpoint = config.Endpoint
	}
	if config.SubscriptionEndpoint != "" {
		d.SubscriptionEndpoint = config.SubscriptionEndpoint
	}
	if config.Version != "" {
		d.PlaygroundVersion = "@" + strings.TrimLeft(config.Version, "@")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playground.ExecuteTemplate(w, "index", d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

const playgroundTemplate = `
{{ define "index" }}
<!DOCTYPE html>
<html>

<head>
  <meta charset="utf-8">
  <meta name="viewport" content="user-scalable=no, initial-scale=1.0, minimum-scale=1.0, maximum-scale=1.0, minimal-ui">
  <title>GraphQL Playground</title>
  <link rel="stylesheet" href="//cdn.jsdelivr.net/npm/graphql-playground-react{{ .PlaygroundVersion }}/build/static/css/index.css" />
  <link rel="shortcut icon" href="//cdn.jsdelivr.net/npm/graphql-playground-react{{ .PlaygroundVersion }}/build/favicon.png" />
  <script src="//cdn.jsdelivr.net/npm/graphql-playground-react{{ .PlaygroundVersion }}/build/static/js/middleware.js"></script>
</head>

<body>
  <div id="root">
    <style>
      body {
        background-color: rgb(23, 42, 58);
        font-family: Open Sans, sans-serif;
        height: 90vh;
      }

      #root {
        height: 100%;
        width: 100%;
        display: flex;
        align-items: center;
        justify-content: center;
      }

      .loading {
        font-size: 32px;
        font-weight: 200;
        color: rgba(255, 255, 255, .6);
        margin-left: 20px;
      }

      img {
        width: 78px;
        height: 78px;
      }

      .title {
        font-weight: 400;
      }
    </style>
    <img src='//cdn.jsdelivr.net/npm/graphql-playground-react/build/logo.png' alt=''>
    <div class="loading"> Loading
      <span class="title">GraphQL Playground</span>
    </div>
  </div>
  <script>window.addEventListener('load', function (event) {
      GraphQLPlayground.init(document.getElementById('root'), {
        endpoint: {{ .Endpoint }},
        subscriptionEndpoint: {{ .SubscriptionEndpoint }},
        setTitle: {{ .SetTitle }}
      })
    })</script>
</body>

</html>
{{ end }}
`
