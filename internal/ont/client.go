package ont

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	models "github.com/RoGogDBD/huawei-ont-exporter/internal/model"
)

const DefaultRequestTimeout = 10 * time.Second

// Endpoints are the firmware specific paths of the web UI.
type Endpoints struct {
	Init      string
	Token     string
	Login     string
	Telemetry string
	Logout    string
}

var DefaultEndpoints = Endpoints{
	Init:      "/",
	Token:     "/asp/GetRandCount.asp",
	Login:     "/login.cgi",
	Telemetry: "/html/amp/opticinfo/opticinfo.asp",
	Logout:    "/logout.cgi?RequestFile=html/logout.html",
}

// Target identifies the device and the credentials used against it.
type Target struct {
	BaseURL  string
	Username string
	Password string
}

type Options struct {
	Endpoints      Endpoints
	Layout         Layout
	RequestTimeout time.Duration
	Transport      http.RoundTripper
	Logger         *zap.Logger
}

// Result of a finished cycle. LogoutErr is reported separately because a
// failed logout never changes the outcome of the cycle.
type Result struct {
	Sample    models.Sample
	LogoutErr error
}

// Client runs the token → login → telemetry → logout protocol. It keeps no
// session state between calls: every Scrape gets its own cookie jar.
type Client struct {
	endpoints Endpoints
	layout    Layout
	timeout   time.Duration
	transport http.RoundTripper
	logger    *zap.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		endpoints: opts.Endpoints,
		layout:    opts.Layout,
		timeout:   opts.RequestTimeout,
		transport: opts.Transport,
		logger:    opts.Logger,
	}
	if c.endpoints == (Endpoints{}) {
		c.endpoints = DefaultEndpoints
	}
	if c.layout == (Layout{}) {
		c.layout = DefaultLayout
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.transport == nil {
		c.transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Scrape performs one full cycle against target. Logout is attempted exactly
// once on every path, including a failed token fetch.
func (c *Client) Scrape(ctx context.Context, target Target) (res Result, err error) {
	s := c.newSession(target)
	defer func() {
		res.LogoutErr = s.logout(ctx)
	}()

	sample, err := s.collect(ctx)
	if err != nil {
		return res, err
	}
	res.Sample = sample
	return res, nil
}

type session struct {
	http    *resty.Client
	base    string
	target  Target
	paths   Endpoints
	layout  Layout
	timeout time.Duration
	logger  *zap.Logger
}

func (c *Client) newSession(target Target) *session {
	// cookiejar.New always returns a nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	base := strings.TrimRight(target.BaseURL, "/")

	rc := resty.NewWithClient(&http.Client{Transport: c.transport, Jar: jar}).
		SetBaseURL(base).
		SetTimeout(c.timeout).
		SetLogger(c.logger.Sugar())

	return &session{
		http:    rc,
		base:    base,
		target:  target,
		paths:   c.endpoints,
		layout:  c.layout,
		timeout: c.timeout,
		logger:  c.logger,
	}
}

func (s *session) collect(ctx context.Context) (models.Sample, error) {
	s.warmUp(ctx)

	token, err := s.fetchToken(ctx)
	if err != nil {
		return models.Sample{}, err
	}
	if err := s.login(ctx, token); err != nil {
		return models.Sample{}, err
	}
	return s.fetchTelemetry(ctx)
}

// warmUp loads the landing page so the device hands out its pre-login
// cookies. Its outcome does not matter.
func (s *session) warmUp(ctx context.Context) {
	if _, err := s.http.R().SetContext(ctx).Get(s.paths.Init); err != nil {
		s.logger.Debug("landing page request failed", zap.Error(err))
	}
}

func (s *session) fetchToken(ctx context.Context) (string, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Referer", s.base+"/").
		SetHeader("Origin", s.base).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		Post(s.paths.Token)
	if err != nil {
		return "", stepError(models.KindTokenFetch, StepToken, err)
	}
	if !resp.IsSuccess() {
		return "", stepError(models.KindTokenFetch, StepToken, fmt.Errorf("unexpected status: %d", resp.StatusCode()))
	}

	token := strings.TrimSpace(strings.TrimPrefix(string(resp.Body()), "\ufeff"))
	if token == "" {
		return "", stepError(models.KindTokenFetch, StepToken, ErrEmptyToken)
	}
	return token, nil
}

func (s *session) login(ctx context.Context, token string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Referer", s.base+"/").
		SetFormData(map[string]string{
			"UserName":     s.target.Username,
			"PassWord":     base64.StdEncoding.EncodeToString([]byte(s.target.Password)),
			"Language":     "english",
			"x.X_HW_Token": token,
		}).
		Post(s.paths.Login)
	if err != nil {
		return stepError(models.KindAuthFailed, StepLogin, err)
	}
	if !resp.IsSuccess() {
		return stepError(models.KindAuthFailed, StepLogin, fmt.Errorf("unexpected status: %d", resp.StatusCode()))
	}
	if loginRejected(resp.String()) {
		return stepError(models.KindAuthFailed, StepLogin, ErrLoginRejected)
	}
	return nil
}

// loginRejected reports whether the device answered with its login page
// instead of redirecting into the authenticated UI.
func loginRejected(body string) bool {
	return strings.Contains(body, "login.asp") && !strings.Contains(body, "top.location.replace")
}

func (s *session) fetchTelemetry(ctx context.Context) (models.Sample, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.paths.Telemetry)
	if err != nil {
		return models.Sample{}, stepError(models.KindFetchFailed, StepTelemetry, err)
	}
	if !resp.IsSuccess() {
		return models.Sample{}, stepError(models.KindFetchFailed, StepTelemetry, fmt.Errorf("unexpected status: %d", resp.StatusCode()))
	}

	sample, err := s.layout.Parse(resp.String())
	if err != nil {
		return models.Sample{}, &ScrapeError{Kind: models.KindParseFailed, Step: StepTelemetry, Err: err}
	}
	return sample, nil
}

// logout closes the session. It runs on a context detached from the caller's
// cancellation so an expired cycle still frees the device's session slot.
func (s *session) logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	resp, err := s.http.R().SetContext(ctx).Get(s.paths.Logout)
	if err != nil {
		return &ScrapeError{Kind: models.KindLogoutFailed, Step: StepLogout, Err: err}
	}
	if !resp.IsSuccess() {
		return &ScrapeError{Kind: models.KindLogoutFailed, Step: StepLogout, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode())}
	}
	return nil
}
