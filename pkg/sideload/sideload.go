// Package sideload drives the developer web server on port 80: installing,
// replacing and deleting the development channel, and capturing screenshots.
// Every request is digest-authenticated after a priming request has produced
// a challenge.
package sideload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/icholy/digest"
	"github.com/oklog/ulid/v2"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
	"github.com/devicelab-dev/ecp-runner/pkg/poll"
)

// Developer web server endpoints
const (
	PathInstall    = "/plugin_install"
	PathInspect    = "/plugin_inspect"
	PathScreenshot = "/pkgs/dev.jpg"
)

// Action is the value of the mysubmit form field.
type Action string

// Actions
const (
	ActionInstall    Action = "Install"
	ActionReplace    Action = "Replace"
	ActionDelete     Action = "Delete"
	ActionScreenshot Action = "Screenshot"
)

// Defaults for Config fields left at zero.
const (
	DefaultUsername          = "rokudev"
	DefaultChallengeAttempts = 5
	DefaultChallengeDelay    = 1000 * time.Millisecond
	DefaultTimeout           = 5 * time.Minute
)

// Config holds credentials and handshake tunables.
type Config struct {
	Username          string
	Password          string
	ChallengeAttempts int
	ChallengeDelay    time.Duration
	Timeout           time.Duration
	Sleeper           poll.Sleeper // nil uses the wall clock
}

// Session talks to one device's developer web server.
type Session struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	poller     *poll.Poller
}

// NewSession creates a session for the device at host (no port).
func NewSession(host string, cfg Config) *Session {
	return NewSessionURL("http://"+host, cfg)
}

// NewSessionURL creates a session for an explicit base URL.
func NewSessionURL(baseURL string, cfg Config) *Session {
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.ChallengeAttempts <= 0 {
		cfg.ChallengeAttempts = DefaultChallengeAttempts
	}
	if cfg.ChallengeDelay < 0 {
		cfg.ChallengeDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Session{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		poller:     poll.New(cfg.Sleeper),
	}
}

// Install uploads a zip archive as the development channel.
func (s *Session) Install(ctx context.Context, archivePath string) error {
	return s.submitArchive(ctx, ActionInstall, archivePath)
}

// Replace uploads a zip archive over the existing development channel.
func (s *Session) Replace(ctx context.Context, archivePath string) error {
	return s.submitArchive(ctx, ActionReplace, archivePath)
}

// Delete removes the development channel.
func (s *Session) Delete(ctx context.Context) error {
	form, contentType, err := buildForm(ActionDelete, "", nil)
	if err != nil {
		return err
	}
	_, err = s.authenticatedPost(ctx, PathInstall, form, contentType)
	return err
}

func (s *Session) submitArchive(ctx context.Context, action Action, archivePath string) error {
	f, err := os.Open(archivePath) //#nosec G304 -- user-provided archive
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	form, contentType, err := buildForm(action, filepath.Base(archivePath), f)
	if err != nil {
		return err
	}
	logger.Info("%s %s (%d bytes)", action, archivePath, len(form))
	_, err = s.authenticatedPost(ctx, PathInstall, form, contentType)
	return err
}

// Screenshot asks the device to capture the screen and downloads the image.
func (s *Session) Screenshot(ctx context.Context) (core.Attachment, error) {
	form, contentType, err := buildForm(ActionScreenshot, "", nil)
	if err != nil {
		return core.Attachment{}, err
	}

	challenge, err := s.challenge(ctx, PathInspect)
	if err != nil {
		return core.Attachment{}, err
	}
	if _, err := s.send(ctx, http.MethodPost, PathInspect, form, contentType, challenge, 1); err != nil {
		return core.Attachment{}, err
	}

	body, err := s.send(ctx, http.MethodGet, PathScreenshot, nil, "", challenge, 2)
	if err != nil {
		return core.Attachment{}, err
	}
	return core.NewScreenshotAttachment(body), nil
}

func (s *Session) authenticatedPost(ctx context.Context, path string, form []byte, contentType string) ([]byte, error) {
	challenge, err := s.challenge(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPost, path, form, contentType, challenge, 1)
}

// challenge primes path with an unauthenticated request until the device
// answers with a digest WWW-Authenticate header.
func (s *Session) challenge(ctx context.Context, path string) (*digest.Challenge, error) {
	var header string

	ok, err := s.poller.Until(ctx, "auth challenge "+path, func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, nil)
		if err != nil {
			return false, err
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return false, core.ErrTransport.WithCause(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		header = resp.Header.Get("WWW-Authenticate")
		return strings.HasPrefix(strings.ToLower(header), "digest "), nil
	}, poll.Options{MaxAttempts: s.cfg.ChallengeAttempts, Delay: s.cfg.ChallengeDelay})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrAuthChallengeTimeout.WithDetails(map[string]interface{}{
			"path":     path,
			"attempts": s.cfg.ChallengeAttempts,
		})
	}

	chal, err := digest.ParseChallenge(header)
	if err != nil {
		return nil, core.ErrMalformedResponse.WithCause(fmt.Errorf("parse challenge: %w", err))
	}
	return chal, nil
}

// send issues an authenticated request. count is the nonce count for the
// challenge, incremented by the caller for each reuse.
func (s *Session) send(ctx context.Context, method, path string, body []byte, contentType string, chal *digest.Challenge, count int) ([]byte, error) {
	cred, err := digest.Digest(chal, digest.Options{
		Method:   method,
		URI:      path,
		Count:    count,
		Username: s.cfg.Username,
		Password: s.cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("compute digest: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", cred.String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Error("%s %s [%v] ERROR: %v", method, path, time.Since(start), err)
		return nil, core.ErrTransport.WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Info("%s %s [%v] %d", method, path, time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &core.CommandError{Method: method, Path: path, Status: resp.StatusCode}
	}
	return data, nil
}

// buildForm encodes the mysubmit/archive form. A nil archive sends an empty
// archive field.
func buildForm(action Action, filename string, archive io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("mysubmit", string(action)); err != nil {
		return nil, "", fmt.Errorf("write form: %w", err)
	}
	if archive != nil {
		part, err := w.CreateFormFile("archive", filename)
		if err != nil {
			return nil, "", fmt.Errorf("write form: %w", err)
		}
		if _, err := io.Copy(part, archive); err != nil {
			return nil, "", fmt.Errorf("read archive: %w", err)
		}
	} else if err := w.WriteField("archive", ""); err != nil {
		return nil, "", fmt.Errorf("write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("write form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ScreenshotName returns a unique file name for a screenshot.
func ScreenshotName() string {
	return "screenshot-" + strings.ToLower(ulid.Make().String()) + ".jpg"
}
