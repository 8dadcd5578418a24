package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"
)

const (
	maxProxyBody     = 2 << 20
	maxProxyRedirect = 5
)

var errRedirectNotAllowed = errors.New("redirect to a host outside the allow-list")

// ProxyHandler forwards GET requests to an allow-listed set of hiscores hosts
// so browser clients can read them without CORS restrictions.
type ProxyHandler struct {
	client         *http.Client
	allowedDomains []string
	userAgent      string
}

func NewProxyHandler(allowedDomains []string, timeout time.Duration, userAgent string) *ProxyHandler {
	h := &ProxyHandler{allowedDomains: allowedDomains, userAgent: userAgent}
	h.client = &http.Client{Timeout: timeout, CheckRedirect: h.checkRedirect}
	return h
}

// checkRedirect keeps every hop on the allow-list.
func (h *ProxyHandler) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxProxyRedirect {
		return fmt.Errorf("stopped after %d redirects", maxProxyRedirect)
	}
	if !h.allowed(req.URL) {
		return fmt.Errorf("%w: %s", errRedirectNotAllowed, req.URL.Hostname())
	}
	return nil
}

func (h *ProxyHandler) allowed(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && slices.Contains(h.allowedDomains, u.Hostname())
}

func (h *ProxyHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing url parameter", http.StatusBadRequest)
		return
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	if !h.allowed(u) {
		http.Error(w, "Domain not allowed", http.StatusForbidden)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if errors.Is(err, errRedirectNotAllowed) {
		slog.Warn("proxy redirect left the allow-list", "error", err, "target", u.Host)
		http.Error(w, "Domain not allowed", http.StatusForbidden)
		return
	}
	if err != nil {
		slog.Error("failed to proxy request", "error", err, "target", u.Host)
		http.Error(w, fmt.Sprintf("Proxy error: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close upstream body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		http.Error(w, "PLAYER_NOT_FOUND", http.StatusNotFound)
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("proxy target returned error", "status", resp.StatusCode, "target", u.Host)
		http.Error(w, fmt.Sprintf("Target server error: %d", resp.StatusCode), resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		slog.Error("failed to read upstream body", "error", err, "target", u.Host)
		http.Error(w, fmt.Sprintf("Proxy error: %v", err), http.StatusInternalServerError)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}
