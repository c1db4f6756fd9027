package openstack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/gophercloud/gophercloud/v2"
	gcos "github.com/gophercloud/gophercloud/v2/openstack"

	"github.com/imamik/overcloud/internal/config"
	"github.com/imamik/overcloud/internal/deployerr"
	"github.com/imamik/overcloud/internal/metrics"
	"github.com/imamik/overcloud/internal/util/retry"
)

// Service types as they appear in the identity catalog.
const (
	ServiceOrchestration = "orchestration"
	ServiceBaremetal     = "baremetal"
	ServiceIntrospection = "baremetal-introspection"
	ServiceCompute       = "compute"
	ServiceNetwork       = "network"
	ServiceImage         = "image"
)

// ironicAPIVersion is the bare metal microversion requested on every call.
// 1.6 is the first version that accepts the "inspect" transition.
const ironicAPIVersion = "1.6"

type serviceFactory func(*gophercloud.ProviderClient, gophercloud.EndpointOpts) (*gophercloud.ServiceClient, error)

var serviceFactories = map[string]serviceFactory{
	ServiceOrchestration: gcos.NewOrchestrationV1,
	ServiceBaremetal:     gcos.NewBareMetalV1,
	ServiceIntrospection: gcos.NewBareMetalIntrospectionV1,
	ServiceCompute:       gcos.NewComputeV2,
	ServiceNetwork:       gcos.NewNetworkV2,
	ServiceImage:         gcos.NewImageV2,
}

// Client talks to the undercloud APIs through one authenticated provider.
// Authentication happens on the first call.
type Client struct {
	httpClient *http.Client
	auth       config.Auth
	overrides  map[string]string
	retryOpts  []retry.Option

	mu       sync.Mutex
	provider *gophercloud.ProviderClient
	services map[string]*gophercloud.ServiceClient
	stackIDs map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeouts sets the identity retry budget.
func WithTimeouts(t *config.Timeouts) Option {
	return func(c *Client) {
		c.retryOpts = []retry.Option{
			retry.WithMaxRetries(t.RetryMaxAttempts),
			retry.WithInitialDelay(t.RetryInitialDelay),
		}
	}
}

// NewClient creates a client. Endpoints set in ep bypass catalog lookup.
func NewClient(auth config.Auth, ep config.Endpoints, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		auth:       auth,
		overrides: map[string]string{
			ServiceOrchestration: ep.Orchestration,
			ServiceBaremetal:     ep.Baremetal,
			ServiceIntrospection: ep.Introspection,
			// gophercloud looks the introspection service up under its
			// legacy type name.
			"baremetal-inspector": ep.Introspection,
			ServiceCompute:        ep.Compute,
			ServiceNetwork:        ep.Network,
			ServiceImage:          ep.Image,
		},
		services: map[string]*gophercloud.ServiceClient{},
		stackIDs: map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate obtains a scoped token and the service catalog. It is
// called by the first request that needs a service.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.provider != nil {
		return nil
	}

	if c.auth.URL == "" {
		if !c.hasOverrides() {
			return deployerr.Configf("no identity URL configured (set auth.url or OS_AUTH_URL)")
		}
		// Endpoints are fixed and the token, if any, is used as-is.
		pc := &gophercloud.ProviderClient{HTTPClient: *c.httpClient}
		if c.auth.Token != "" {
			pc.SetToken(c.auth.Token)
		}
		pc.EndpointLocator = c.locator(nil)
		c.provider = pc
		return nil
	}

	pc, err := gcos.NewClient(c.auth.URL)
	if err != nil {
		return deployerr.Configf("invalid identity URL %q: %v", c.auth.URL, err)
	}
	pc.HTTPClient = *c.httpClient

	err = retry.Do(ctx, "keystone authentication", func(ctx context.Context) error {
		err := gcos.Authenticate(ctx, pc, c.authOptions())
		if err == nil {
			return nil
		}
		err = wrapErr(err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	}, c.retryOpts...)
	if err != nil {
		return err
	}

	pc.EndpointLocator = c.locator(pc.EndpointLocator)
	c.provider = pc
	return nil
}

func (c *Client) hasOverrides() bool {
	for _, u := range c.overrides {
		if u != "" {
			return true
		}
	}
	return false
}

func (c *Client) authOptions() gophercloud.AuthOptions {
	opts := gophercloud.AuthOptions{
		IdentityEndpoint: c.auth.URL,
		Username:         c.auth.Username,
		Password:         c.auth.Password,
		DomainName:       c.auth.UserDomain,
		AllowReauth:      c.auth.Password != "",
	}
	if c.auth.Password == "" && c.auth.Token != "" {
		opts.TokenID = c.auth.Token
		opts.Username = ""
		opts.DomainName = ""
	}
	if c.auth.ProjectName != "" {
		opts.Scope = &gophercloud.AuthScope{
			ProjectName: c.auth.ProjectName,
			DomainName:  c.auth.ProjectDomain,
		}
	}
	return opts
}

// locator resolves service endpoints from the overrides first and the
// catalog second.
func (c *Client) locator(catalog gophercloud.EndpointLocator) gophercloud.EndpointLocator {
	return func(eo gophercloud.EndpointOpts) (string, error) {
		if u := c.overrides[eo.Type]; u != "" {
			return gophercloud.NormalizeURL(u), nil
		}
		notFound := &deployerr.NotFoundError{Kind: "service endpoint", Name: eo.Type + "/" + string(eo.Availability)}
		if catalog == nil {
			return "", notFound
		}
		u, err := catalog(eo)
		if err != nil {
			return "", fmt.Errorf("%w: %v", notFound, err)
		}
		return u, nil
	}
}

// service returns the client of one service, authenticating if needed.
func (c *Client) service(ctx context.Context, service string) (*gophercloud.ServiceClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sc, ok := c.services[service]; ok {
		return sc, nil
	}
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}

	iface := c.auth.Interface
	if iface == "" {
		iface = config.DefaultAuthInterface
	}
	sc, err := serviceFactories[service](c.provider, gophercloud.EndpointOpts{
		Region:       c.auth.Region,
		Availability: gophercloud.Availability(iface),
	})
	if err != nil {
		return nil, err
	}
	if service == ServiceBaremetal {
		sc.Microversion = ironicAPIVersion
	}
	c.services[service] = sc
	return sc, nil
}

// call runs fn against one service and records its duration and result.
func (c *Client) call(ctx context.Context, service, method string, fn func(*gophercloud.ServiceClient) error) error {
	sc, err := c.service(ctx, service)
	if err != nil {
		return err
	}
	start := time.Now()
	err = wrapErr(fn(sc))
	metrics.RecordAPICall(service, method, resultLabel(err), time.Since(start).Seconds())
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

// APIError is a non-2xx response from an OpenStack service.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Unwrap maps the HTTP status onto an errdefs class.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return errdefs.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return errdefs.ErrConflict
	case e.StatusCode == http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case e.StatusCode == http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case e.StatusCode == http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case e.StatusCode >= 500:
		return errdefs.ErrUnavailable
	}
	return errdefs.ErrUnknown
}

// wrapErr turns gophercloud response errors into *APIError.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var resp gophercloud.ErrUnexpectedResponseCode
	if !errors.As(err, &resp) {
		var respPtr *gophercloud.ErrUnexpectedResponseCode
		if !errors.As(err, &respPtr) || respPtr == nil {
			return err
		}
		resp = *respPtr
	}
	return &APIError{
		StatusCode: resp.Actual,
		Method:     resp.Method,
		URL:        resp.URL,
		Message:    strings.TrimSpace(string(resp.Body)),
	}
}

// IsNotFound reports whether err is a 404 from an OpenStack service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
