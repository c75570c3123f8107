package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swoga/moto-exporter/cache"
	"github.com/swoga/moto-exporter/config"
	"go.uber.org/zap"
)

const (
	soapNamespace = "http://purenetworks.com/HNAP1/"
	// used for HNAP_AUTH before a session exists
	withoutLoginKey = "withoutloginkey"
)

var knownActions = map[string]bool{
	"Login":                              true,
	"GetHomeConnection":                  true,
	"GetHomeAddress":                     true,
	"GetMotoStatusSoftware":              true,
	"GetMotoStatusLog":                   true,
	"GetMotoLagStatus":                   true,
	"GetMotoStatusConnectionInfo":        true,
	"GetMotoStatusDownstreamChannelInfo": true,
	"GetMotoStatusStartupSequence":       true,
	"GetMotoStatusUpstreamChannelInfo":   true,
}

// DeviceError is returned for every failed exchange with the modem.
type DeviceError struct {
	Action string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("modem action %s: %s", e.Action, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewHTTPClient returns a client for the modem's self-signed HTTPS interface,
// instrumented with request counters and latencies.
func NewHTTPClient(device config.Device, registry prometheus.Registerer) *http.Client {
	requestCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moto_exporter",
		Name:      "client_requests_total",
		Help:      "HTTP requests to the modem.",
	}, []string{"code", "method"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moto_exporter",
		Name:      "client_request_duration_seconds",
		Help:      "Histogram of modem HTTP request latencies.",
	}, []string{"code", "method"})
	if registry != nil {
		registry.MustRegister(requestCount, requestDuration)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: device.InsecureSkipVerify},
	}

	return &http.Client{
		Transport: promhttp.InstrumentRoundTripperCounter(requestCount,
			promhttp.InstrumentRoundTripperDuration(requestDuration, transport)),
		Timeout: device.TimeoutDuration(),
	}
}

type Client struct {
	log      *zap.Logger
	device   config.Device
	http     *http.Client
	sessions *cache.Sessions
	uri      string
	now      func() time.Time
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// WithURI overrides the HNAP endpoint, by default https://<address>/HNAP1/.
func WithURI(uri string) ClientOption {
	return func(c *Client) {
		c.uri = uri
	}
}

func NewClient(log *zap.Logger, device config.Device, sessions *cache.Sessions, opts ...ClientOption) *Client {
	c := &Client{
		log:      log.With(zap.String("device", device.Address)),
		device:   device,
		http:     http.DefaultClient,
		sessions: sessions,
		uri:      fmt.Sprintf("https://%s/HNAP1/", device.Address),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) session() cache.Session {
	session, ok := c.sessions.Get(c.device.Address)
	if !ok {
		return cache.Session{PrivateKey: withoutLoginKey}
	}
	return session
}

func (c *Client) hnapAuth(privateKey, action string) string {
	timestamp := strconv.FormatInt(c.now().UnixMilli()%2000000000000, 10)
	return hmacMD5(privateKey, timestamp+soapNamespace+action) + " " + timestamp
}

func hmacMD5(key, data string) string {
	mac := hmac.New(md5.New, []byte(key))
	mac.Write([]byte(data))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

func (c *Client) do(ctx context.Context, action string, params interface{}, session cache.Session) (*gabs.Container, error) {
	if !knownActions[action] {
		return nil, &DeviceError{Action: action, Err: errors.New("unknown action")}
	}

	body, err := json.Marshal(map[string]interface{}{action: params})
	if err != nil {
		return nil, &DeviceError{Action: action, Err: err}
	}

	c.log.Debug("send request", zap.String("action", action), zap.String("url", c.uri))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(body))
	if err != nil {
		return nil, &DeviceError{Action: action, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("SOAPAction", soapNamespace+action)
	req.Header.Set("HNAP_AUTH", c.hnapAuth(session.PrivateKey, action))
	req.AddCookie(&http.Cookie{Name: "PrivateKey", Value: session.PrivateKey})
	if session.UID != "" {
		req.AddCookie(&http.Cookie{Name: "uid", Value: session.UID})
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &DeviceError{Action: action, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		c.log.Error("error from modem", zap.String("action", action), zap.Int("status", res.StatusCode), zap.String("response", string(data)))
		return nil, &DeviceError{Action: action, Err: fmt.Errorf("non-200 response: %d", res.StatusCode)}
	}

	container, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return nil, &DeviceError{Action: action, Err: fmt.Errorf("unable to decode JSON response: %w", err)}
	}

	key := action + "Response"
	if !container.Exists(key) {
		return nil, &DeviceError{Action: action, Err: errors.New("no response from modem")}
	}
	response := container.Search(key)
	c.log.Debug("response", zap.String("action", action), zap.Any("data", response.Data()))
	return response, nil
}

// Login performs the two-phase HNAP login and stores the session for later actions.
func (c *Client) Login(ctx context.Context) error {
	c.sessions.Remove(c.device.Address)

	challenge, err := c.do(ctx, "Login", loginParams("request", c.device.Username, ""), c.session())
	if err != nil {
		return err
	}
	fields := toRaw(challenge)
	for _, key := range []string{"PublicKey", "Challenge", "Cookie"} {
		if fields[key] == "" {
			return &DeviceError{Action: "Login", Err: fmt.Errorf("login challenge without %s", key)}
		}
	}

	session := cache.Session{
		UID:        fields["Cookie"],
		PrivateKey: hmacMD5(fields["PublicKey"]+c.device.Password, fields["Challenge"]),
	}
	password := hmacMD5(session.PrivateKey, fields["Challenge"])

	result, err := c.do(ctx, "Login", loginParams("login", c.device.Username, password), session)
	if err != nil {
		return err
	}
	if status := toRaw(result)["LoginResult"]; !strings.HasPrefix(status, "OK") {
		return &DeviceError{Action: "Login", Err: fmt.Errorf("login rejected: %q", status)}
	}

	c.sessions.Set(c.device.Address, session)
	c.log.Debug("logged in")
	return nil
}

func loginParams(action, username, password string) map[string]string {
	return map[string]string{
		"Action":        action,
		"Captcha":       "",
		"PrivateLogin":  "LoginPassword",
		"Username":      username,
		"LoginPassword": password,
	}
}
