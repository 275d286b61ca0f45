// Package mock provides an in-process fake device for testing without real
// hardware. It serves ECP queries and commands and the digest-protected
// developer endpoints from one httptest server, and records every request.
package mock

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Response is a canned reply.
type Response struct {
	Status int
	Body   string
}

// Request is a recorded request.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Form          map[string]string
	Upload        []byte // archive form file, if any
	Time          time.Time
}

// Config configures fake device behavior.
type Config struct {
	// WithholdChallenge makes the first N priming requests to developer
	// endpoints answer without a WWW-Authenticate header.
	WithholdChallenge int
	// CommandStatus is returned by every command endpoint. 0 = 200.
	CommandStatus int
	// Screenshot is served from /pkgs/dev.jpg.
	Screenshot []byte
}

// Device is a fake device.
type Device struct {
	Config Config

	mu       sync.Mutex
	server   *httptest.Server
	queued   map[string][]Response
	requests []Request
	withheld int
}

// New starts a fake device serving the default fixtures.
func New(cfg Config) *Device {
	if cfg.Screenshot == nil {
		cfg.Screenshot = []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F'}
	}
	d := &Device{
		Config: cfg,
		queued: map[string][]Response{
			"/query/app-ui":       {{Status: http.StatusOK, Body: AppUIFixture}},
			"/query/apps":         {{Status: http.StatusOK, Body: AppsFixture}},
			"/query/active-app":   {{Status: http.StatusOK, Body: ActiveAppFixture}},
			"/query/media-player": {{Status: http.StatusOK, Body: PlayingFixture}},
			"/query/device-info":  {{Status: http.StatusOK, Body: DeviceInfoFixture}},
		},
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	return d
}

// URL returns the base URL of the fake device.
func (d *Device) URL() string {
	return d.server.URL
}

// Close shuts the server down.
func (d *Device) Close() {
	d.server.Close()
}

// SetResponse makes path always answer body with status.
func (d *Device) SetResponse(path string, status int, body string) {
	d.Queue(path, Response{Status: status, Body: body})
}

// Queue makes path answer the responses in order; the last one repeats.
func (d *Device) Queue(path string, responses ...Response) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queued[path] = responses
}

// Requests returns a copy of every request received so far.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// Paths returns the paths of recorded requests with the given method, in order.
func (d *Device) Paths(method string) []string {
	var paths []string
	for _, r := range d.Requests() {
		if r.Method == method {
			paths = append(paths, r.Path)
		}
	}
	return paths
}

// Count returns how many requests hit path.
func (d *Device) Count(path string) int {
	n := 0
	for _, r := range d.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (d *Device) handle(w http.ResponseWriter, r *http.Request) {
	rec := Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawQuery:      r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		Time:          time.Now(),
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			rec.Form = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				rec.Form[k] = v[0]
			}
			if f, _, err := r.FormFile("archive"); err == nil {
				rec.Upload, _ = io.ReadAll(f)
				f.Close()
			}
		}
	}

	d.mu.Lock()
	d.requests = append(d.requests, rec)
	d.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/query/"):
		d.serveQueued(w, r.URL.Path)
	case r.URL.Path == "/plugin_install" || r.URL.Path == "/plugin_inspect" || r.URL.Path == "/pkgs/dev.jpg":
		d.serveDeveloper(w, r)
	case r.Method == http.MethodPost:
		status := d.Config.CommandStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	default:
		http.NotFound(w, r)
	}
}

func (d *Device) serveQueued(w http.ResponseWriter, path string) {
	d.mu.Lock()
	responses, ok := d.queued[path]
	var resp Response
	if ok && len(responses) > 0 {
		resp = responses[0]
		if len(responses) > 1 {
			d.queued[path] = responses[1:]
		}
	}
	d.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(resp.Status)
	io.WriteString(w, resp.Body)
}

func (d *Device) serveDeveloper(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Digest ") {
		d.mu.Lock()
		withhold := d.withheld < d.Config.WithholdChallenge
		if withhold {
			d.withheld++
		}
		d.mu.Unlock()

		if !withhold {
			w.Header().Set("WWW-Authenticate",
				`Digest qop="auth", realm="rokudev", nonce="1700000000"`)
		}
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/pkgs/dev.jpg" {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(d.Config.Screenshot)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, "<html><body><font color=\"red\">Install Success.</font></body></html>")
}
