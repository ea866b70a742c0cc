package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultAPIHost is the base host for JSON API requests.
	DefaultAPIHost = "https://api.box.com"
	// DefaultUploadHost is the base host for binary upload requests.
	DefaultUploadHost = "https://upload.box.com"
	// DefaultClientName identifies this client in the X-Box-Client-Name header.
	DefaultClientName = "boxkit-cli"

	apiVersion = "2.0"
)

// Config holds connection settings for the Box API.
type Config struct {
	APIHost            string
	UploadHost         string
	Token              string
	SharedLink         string
	SharedLinkPassword string
	ClientName         string
	// Timeout bounds a single request. Zero means no timeout; the
	// retry/backoff layer above cannot bound worst-case latency on its own,
	// so callers are expected to set one.
	Timeout time.Duration
}

// Client talks to the Box content API. JSON endpoints go through resty,
// binary uploads through a plain http.Client so transfers can stream and
// report progress.
type Client struct {
	restClient *resty.Client
	httpClient *http.Client
	config     Config
}

// NewClient creates a Client from config, filling in defaults.
func NewClient(config Config) *Client {
	if config.APIHost == "" {
		config.APIHost = DefaultAPIHost
	}
	if config.UploadHost == "" {
		config.UploadHost = DefaultUploadHost
	}
	if config.ClientName == "" {
		config.ClientName = DefaultClientName
	}

	restClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", config.APIHost, apiVersion))
	if config.Timeout > 0 {
		restClient.SetTimeout(config.Timeout)
	}

	c := &Client{
		restClient: restClient,
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
	restClient.SetHeaders(c.headers())
	return c
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.config.Token = token
	c.restClient.SetHeaders(c.headers())
}

// baseAPIURL returns the versioned JSON API base URL.
func (c *Client) baseAPIURL() string {
	return fmt.Sprintf("%s/%s", c.config.APIHost, apiVersion)
}

// baseUploadURL returns the versioned upload base URL.
func (c *Client) baseUploadURL() string {
	return fmt.Sprintf("%s/api/%s", c.config.UploadHost, apiVersion)
}

// headers builds the common header set for API requests.
func (c *Client) headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"X-Box-Client-Name": c.config.ClientName,
	}

	if c.config.Token != "" {
		headers["Authorization"] = "Bearer " + c.config.Token
	}

	if c.config.SharedLink != "" {
		boxAPI := "shared_link=" + c.config.SharedLink
		if c.config.SharedLinkPassword != "" {
			boxAPI += "&shared_link_password=" + c.config.SharedLinkPassword
		}
		headers["BoxApi"] = boxAPI
	}

	return headers
}

// applyHeaders sets the common headers on a raw http request.
func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers() {
		req.Header.Set(k, v)
	}
}
