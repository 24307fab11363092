package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mcpman/mcpman/internal/config"
	"github.com/mcpman/mcpman/internal/oauth"
)

// authRoundTripper attaches a bearer access token to every outbound request
// and surfaces a 401 as ErrUnauthorized instead of an opaque transport error.
type authRoundTripper struct {
	base   http.RoundTripper
	server string
	tokens func() (string, error)
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.tokens != nil {
		token, err := t.tokens()
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return resp, &ErrUnauthorized{Server: t.server, Detail: "upstream returned 401"}
	}
	return resp, nil
}

// headerRoundTripper injects static configured headers into every request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// Session is one upstream MCP server connection: a stdio child process or a
// streamable-HTTP session, with its own roots-forwarding and OAuth state.
type Session struct {
	Name   string
	config config.ServerConfig
	logger *zap.Logger

	oauthProvider *oauth.Provider
	oauthMeta     *oauth.Metadata

	mu      sync.RWMutex
	state   ConnectionState
	client  *mcpsdk.Client
	session *mcpsdk.ClientSession
	tools   []ToolDescriptor

	roots RootsProvider
}

// NewSession constructs a disconnected Session for one configured server.
func NewSession(name string, cfg config.ServerConfig, logger *zap.Logger, oauthProvider *oauth.Provider) *Session {
	return &Session{
		Name:          name,
		config:        cfg,
		logger:        logger.With(zap.String("server", name)),
		oauthProvider: oauthProvider,
		state:         StateDisconnected,
	}
}

// SetRootsProvider installs the callback used to answer the upstream's
// "roots/list" request and advertise the roots capability.
func (s *Session) SetRootsProvider(p RootsProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = p
}

// State reports the session's current ConnectionState.
func (s *Session) State() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Connect dials the configured transport and performs the MCP initialize
// handshake. For an HTTP server guarded by OAuth, a 401 on first contact
// triggers the authorization-code flow via the provider's OnRedirect
// callback and is surfaced as ErrUnauthorized rather than retried silently.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.mu.Unlock()

	impl := &mcpsdk.Implementation{Name: "mcpman", Version: "1.0.0"}
	var opts *mcpsdk.ClientOptions
	if s.roots != nil {
		opts = &mcpsdk.ClientOptions{
			ListRootsHandler: func(_ context.Context, _ *mcpsdk.ClientRequest[*mcpsdk.ListRootsParams]) (*mcpsdk.ListRootsResult, error) {
				s.mu.RLock()
				provider := s.roots
				s.mu.RUnlock()
				if provider == nil {
					return &mcpsdk.ListRootsResult{Roots: []*mcpsdk.Root{}}, nil
				}
				roots := provider()
				out := make([]*mcpsdk.Root, len(roots))
				for i, r := range roots {
					out[i] = &mcpsdk.Root{URI: r.URI, Name: r.Name}
				}
				return &mcpsdk.ListRootsResult{Roots: out}, nil
			},
		}
	}
	client := mcpsdk.NewClient(impl, opts)

	transport, err := s.buildTransport(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return err
	}

	timeout := time.Duration(s.config.Timeout()) * time.Millisecond
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientSession, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		if unauth, ok := asUnauthorized(err); ok {
			if s.oauthProvider != nil && s.oauthMeta != nil {
				if _, aerr := s.oauthProvider.BeginAuthorization(ctx, s.Name, s.oauthMeta); aerr != nil {
					s.logger.Warn("failed to start oauth authorization", zap.Error(aerr))
				}
			}
			return unauth
		}
		return fmt.Errorf("connect to %q: %w", s.Name, err)
	}

	s.mu.Lock()
	s.client = client
	s.session = clientSession
	s.state = StateConnected
	hasRoots := s.roots != nil
	s.mu.Unlock()

	s.logger.Info("connected to upstream server", zap.String("transport", string(s.config.Transport)))

	if hasRoots {
		if err := s.NotifyRootsChanged(ctx); err != nil {
			s.logger.Warn("failed to send initial roots notification", zap.Error(err))
		}
	}
	return nil
}

func asUnauthorized(err error) (*ErrUnauthorized, bool) {
	if err == nil {
		return nil, false
	}
	if e, ok := err.(*ErrUnauthorized); ok {
		return e, true
	}
	return nil, false
}

func (s *Session) buildTransport(ctx context.Context) (mcpsdk.Transport, error) {
	switch s.config.Transport {
	case config.TransportStdio:
		return s.buildStdioTransport()
	case config.TransportHTTP:
		return s.buildHTTPTransport(ctx)
	default:
		return nil, fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
}

func (s *Session) buildStdioTransport() (mcpsdk.Transport, error) {
	cmd := exec.Command(s.config.Command, s.config.Args...)
	cmd.Env = mergedEnv(s.config.Env)
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func (s *Session) buildHTTPTransport(ctx context.Context) (mcpsdk.Transport, error) {
	httpClient := &http.Client{Timeout: time.Duration(s.config.Timeout()) * time.Millisecond}

	var base http.RoundTripper = http.DefaultTransport
	if len(s.config.Headers) > 0 {
		base = &headerRoundTripper{base: base, headers: s.config.Headers}
	}

	if s.config.OAuth != nil && s.oauthProvider != nil {
		meta, err := s.oauthProvider.DiscoverMetadata(ctx, s.config.URL)
		if err != nil {
			return nil, fmt.Errorf("discover oauth metadata for %q: %w", s.Name, err)
		}
		s.oauthMeta = meta
		base = &authRoundTripper{
			base:   base,
			server: s.Name,
			tokens: func() (string, error) {
				tokens, err := s.oauthProvider.GetValidToken(context.Background(), s.Name, meta, s.logger)
				if err != nil {
					return "", nil // no token yet; let the 401 drive authorization
				}
				return tokens.AccessToken, nil
			},
		}
	}
	httpClient.Transport = base

	return &mcpsdk.StreamableClientTransport{
		Endpoint:   s.config.URL,
		HTTPClient: httpClient,
	}, nil
}

// Ping re-contacts the upstream's listTools endpoint directly, bypassing
// the ListTools cache, so it actually detects a server that has died since
// the last successful call rather than replaying a cached tool count.
func (s *Session) Ping(ctx context.Context) (int, error) {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return 0, &ErrServerNotConnected{Server: s.Name}
	}

	result, err := sess.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return 0, fmt.Errorf("ping %q: %w", s.Name, err)
	}
	return len(result.Tools), nil
}

// MarkFailed demotes a connected session to StateFailed without closing its
// transport or removing it from the fleet, so a later call still gets a
// clear ServerNotConnected-adjacent diagnostic instead of silently hanging.
func (s *Session) MarkFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnected {
		s.state = StateFailed
	}
}

// ListTools returns the upstream's tool set, querying on first call and
// caching thereafter until the session reconnects.
func (s *Session) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	s.mu.RLock()
	sess := s.session
	cached := s.tools
	s.mu.RUnlock()

	if sess == nil {
		return nil, &ErrServerNotConnected{Server: s.Name}
	}
	if cached != nil {
		return cached, nil
	}

	result, err := sess.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools on %q: %w", s.Name, err)
	}

	descs := make([]ToolDescriptor, len(result.Tools))
	for i, t := range result.Tools {
		descs[i] = ToolDescriptor{
			ServerName:  s.Name,
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}

	s.mu.Lock()
	s.tools = descs
	s.mu.Unlock()
	return descs, nil
}

// CallTool invokes one tool on the upstream and unwraps the MCP content
// array into a ToolResult.
func (s *Session) CallTool(ctx context.Context, toolName string, args map[string]any) (*ToolResult, error) {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return nil, &ErrServerNotConnected{Server: s.Name}
	}

	timeout := time.Duration(s.config.Timeout()) * time.Millisecond
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := sess.CallTool(callCtx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		if unauth, ok := asUnauthorized(err); ok {
			return nil, unauth
		}
		return nil, fmt.Errorf("call tool %q on %q: %w", toolName, s.Name, err)
	}

	return toToolResult(result), nil
}

func toToolResult(result *mcpsdk.CallToolResult) *ToolResult {
	out := &ToolResult{IsError: result.IsError}
	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcpsdk.TextContent:
			out.Content = append(out.Content, ContentPart{Type: "text", Text: v.Text})
		case *mcpsdk.ImageContent:
			out.Content = append(out.Content, ContentPart{Type: "image", MIMEType: v.MIMEType, Text: encodeImage(v.Data)})
		case *mcpsdk.EmbeddedResource:
			part := ContentPart{Type: "resource"}
			if v.Resource != nil {
				part.URI = v.Resource.URI
				part.MIMEType = v.Resource.MIMEType
				part.Text = v.Resource.Text
			}
			out.Content = append(out.Content, part)
		default:
			raw, _ := json.Marshal(c)
			out.Content = append(out.Content, ContentPart{Type: "unknown", Text: string(raw)})
		}
	}
	return out
}

func encodeImage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("<%d bytes of image data>", len(data)))
}

// NotifyRootsChanged tells the upstream its root set changed, if the session
// is connected.
func (s *Session) NotifyRootsChanged(ctx context.Context) error {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return nil
	}
	return sess.NotifyRootsListChanged(ctx, &mcpsdk.RootsListChangedParams{})
}

// Close disconnects the session, releasing the stdio child process or HTTP
// transport. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		s.state = StateDisconnected
		return nil
	}
	err := s.session.Close()
	s.session = nil
	s.client = nil
	s.tools = nil
	s.state = StateDisconnected
	return err
}
