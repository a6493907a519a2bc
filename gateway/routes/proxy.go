package routes

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"rooster/gateway/middleware"
)

const maxRPCBody = 1 << 20

// NewProxy forwards JSON-RPC POSTs to the node at target with stripPrefix
// removed from the path. Gateway credentials are not forwarded.
func NewProxy(target *url.URL, stripPrefix string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	basePath := strings.TrimSuffix(stripPrefix, "/")
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			path := strings.TrimPrefix(pr.In.URL.Path, basePath)
			if path == "" || path == "/" {
				pr.Out.URL.Path = target.Path
				if pr.Out.URL.Path == "" {
					pr.Out.URL.Path = "/"
				}
			} else {
				pr.Out.URL.Path = singleJoiningSlash(target.Path, path)
			}
			pr.Out.URL.RawPath = ""
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			if id := middleware.RequestIDFromContext(pr.In.Context()); id != "" {
				pr.Out.Header.Set(middleware.RequestIDHeader, id)
			}
			otel.GetTextMapPropagator().Inject(pr.In.Context(), propagation.HeaderCarrier(pr.Out.Header))
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("gateway: rpc proxy error", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "too_large", err)
				return
			}
			writeJSONError(w, http.StatusBadGateway, "upstream", errors.New("node unavailable"))
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("JSON-RPC requires POST"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRPCBody)
		proxy.ServeHTTP(w, r)
	})
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
