package wafadmin;

// A client for the WAF admin API: canary hashes and IP bans.
// Every request is authenticated with the X-Admin-Token header.

import (
   "bytes"
   "context"
   "crypto/tls"
   "encoding/json"
   "fmt"
   "io"
   "log/slog"
   "net/http"
   "net/netip"
   "net/url"
   "strings"
   "time"

   "github.com/pkg/errors"
   "golang.org/x/net/http2"

   "github.com/eriq-augustine/wafcanary/canary"
)

const (
   HEADER_ADMIN_TOKEN = "X-Admin-Token"
   DEFAULT_BAN_TTL_SECONDS = 86400
   // Admin responses are small JSON documents.
   MAX_RESPONSE_SIZE = 16 << 20
)

type Client struct {
   config Config
   httpClient *http.Client
   logger *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) (*Client, error) {
   var transport *http.Transport = &http.Transport{
      Proxy: http.ProxyFromEnvironment,
      MaxIdleConns: 10,
      IdleConnTimeout: 90 * time.Second,
      TLSHandshakeTimeout: 10 * time.Second,
   };

   if (config.Insecure) {
      // The WAF commonly serves the admin API on localhost with a self-signed cert.
      transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true};
   }

   err := http2.ConfigureTransport(transport);
   if (err != nil) {
      return nil, errors.Wrap(err, "Failed to configure HTTP/2.");
   }

   return NewClientWithHTTP(config, &http.Client{Transport: transport, Timeout: config.Timeout}, logger), nil;
}

func NewClientWithHTTP(config Config, httpClient *http.Client, logger *slog.Logger) *Client {
   if (config.PageSize <= 0) {
      config.PageSize = DEFAULT_PAGE_SIZE;
   }

   if (logger == nil) {
      logger = slog.New(slog.NewTextHandler(io.Discard, nil));
   }

   return &Client{
      config: config,
      httpClient: httpClient,
      logger: logger,
   };
}

func (this *Client) Config() Config {
   return this.config;
}

// Returns whatever the health endpoint reports.
func (this *Client) Health(ctx context.Context) (map[string]interface{}, error) {
   var status map[string]interface{} = make(map[string]interface{});

   err := this.request(ctx, http.MethodGet, "/admin/health", nil, &status);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   return status, nil;
}

// A non-positive count uses the configured page size.
func (this *Client) ListCanaries(ctx context.Context, cursor int, count int) (*CanaryPage, error) {
   var page CanaryPage;

   err := this.request(ctx, http.MethodGet, "/admin/canaries?" + this.pageQuery(cursor, count), nil, &page);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   return &page, nil;
}

// Hashes are normalized before they are sent.
// Returns the number of hashes sent.
func (this *Client) AddHashes(ctx context.Context, hashes []string) (int, error) {
   clean, err := normalizeHashes(hashes);
   if (err != nil) {
      return 0, errors.WithStack(err);
   }

   if (len(clean) == 0) {
      return 0, nil;
   }

   err = this.request(ctx, http.MethodPost, "/admin/canaries", canaryRequest{clean}, nil);
   if (err != nil) {
      return 0, errors.WithStack(err);
   }

   return len(clean), nil;
}

// The credentials are hashed here, the WAF only ever sees the hashes.
func (this *Client) AddCredentials(ctx context.Context, credentials []canary.Credential) (int, error) {
   return this.AddHashes(ctx, hashCredentials(credentials));
}

func (this *Client) DeleteCanaries(ctx context.Context, hashes []string, credentials []canary.Credential) (int, error) {
   clean, err := normalizeHashes(append(append([]string(nil), hashes...), hashCredentials(credentials)...));
   if (err != nil) {
      return 0, errors.WithStack(err);
   }

   if (len(clean) == 0) {
      return 0, nil;
   }

   var body canaryDeleteRequest = canaryDeleteRequest{
      Hashes: clean,
      Credentials: []canary.Credential{},
   };

   err = this.request(ctx, http.MethodDelete, "/admin/canaries", body, nil);
   if (err != nil) {
      return 0, errors.WithStack(err);
   }

   return len(clean), nil;
}

func (this *Client) ListBans(ctx context.Context, cursor int, count int) (*BanPage, error) {
   var page BanPage;

   err := this.request(ctx, http.MethodGet, "/admin/bans?" + this.pageQuery(cursor, count), nil, &page);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   return &page, nil;
}

func (this *Client) Ban(ctx context.Context, ip string, ttlSeconds int) error {
   addr, err := parseIP(ip);
   if (err != nil) {
      return errors.WithStack(err);
   }

   if (ttlSeconds < 0) {
      return errors.Errorf("TTL must be non-negative, got %d.", ttlSeconds);
   }

   err = this.request(ctx, http.MethodPost, "/admin/ban", banRequest{addr, ttlSeconds}, nil);
   if (err != nil) {
      return errors.WithStack(err);
   }

   return nil;
}

func (this *Client) GetBan(ctx context.Context, ip string) (*Ban, error) {
   addr, err := parseIP(ip);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   var ban Ban;
   err = this.request(ctx, http.MethodGet, "/admin/ban/" + url.PathEscape(addr), nil, &ban);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   if (ban.IP == "") {
      ban.IP = addr;
   }

   return &ban, nil;
}

func (this *Client) Unban(ctx context.Context, ip string) error {
   addr, err := parseIP(ip);
   if (err != nil) {
      return errors.WithStack(err);
   }

   err = this.request(ctx, http.MethodDelete, "/admin/ban/" + url.PathEscape(addr), nil, nil);
   if (err != nil) {
      return errors.WithStack(err);
   }

   return nil;
}

func (this *Client) pageQuery(cursor int, count int) string {
   if (count <= 0) {
      count = this.config.PageSize;
   }

   if (cursor < 0) {
      cursor = 0;
   }

   return fmt.Sprintf("cursor=%d&count=%d", cursor, count);
}

// Send a JSON request and decode a JSON response into |out| (if not nil).
func (this *Client) request(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
   var target string = strings.TrimSuffix(this.config.ApiBase, "/") + path;

   var bodyReader io.Reader = nil;
   if (body != nil) {
      data, err := json.Marshal(body);
      if (err != nil) {
         return errors.Wrap(err, "Failed to encode request body.");
      }

      bodyReader = bytes.NewReader(data);
   }

   request, err := http.NewRequestWithContext(ctx, method, target, bodyReader);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to build request: %s %s", method, target);
   }

   request.Header.Set(HEADER_ADMIN_TOKEN, this.config.Token);
   if (body != nil) {
      request.Header.Set("Content-Type", "application/json");
   }

   response, err := this.httpClient.Do(request);
   if (err != nil) {
      this.logger.Error("admin request failed", "method", method, "path", path, "error", err);
      return errors.Wrapf(err, "Request failed: %s %s", method, target);
   }
   defer response.Body.Close();

   text, err := io.ReadAll(io.LimitReader(response.Body, MAX_RESPONSE_SIZE));
   if (err != nil) {
      return errors.Wrapf(err, "Failed to read response: %s %s", method, target);
   }

   this.logger.Debug("admin request", "method", method, "path", path, "status", response.StatusCode, "bytes", len(text));

   if (response.StatusCode < 200 || response.StatusCode > 299) {
      return NewHTTPError(response.StatusCode, errorMessage(response.StatusCode, text));
   }

   if (out == nil || len(bytes.TrimSpace(text)) == 0) {
      return nil;
   }

   err = json.Unmarshal(text, out);
   if (err != nil) {
      raw, ok := out.(*map[string]interface{});
      if (ok) {
         // Non-JSON bodies are kept as-is.
         *raw = map[string]interface{}{"raw": string(text)};
         return nil;
      }

      return errors.Wrapf(err, "Failed to decode response: %s %s", method, target);
   }

   return nil;
}

// Prefer the body's "error", then "detail", then the standard status text.
func errorMessage(status int, text []byte) string {
   var body errorBody;
   if (json.Unmarshal(text, &body) == nil) {
      if (body.Error != "") {
         return body.Error;
      }

      if (body.Detail != "") {
         return body.Detail;
      }
   }

   return http.StatusText(status);
}

func normalizeHashes(hashes []string) ([]string, error) {
   var clean []string = make([]string, 0, len(hashes));
   for _, hash := range(hashes) {
      normal, err := canary.NormalizeHash(hash);
      if (err != nil) {
         return nil, err;
      }

      clean = append(clean, normal);
   }

   return clean, nil;
}

func hashCredentials(credentials []canary.Credential) []string {
   var hashes []string = make([]string, 0, len(credentials));
   for _, credential := range(credentials) {
      hashes = append(hashes, credential.Hash());
   }

   return hashes;
}

func parseIP(ip string) (string, error) {
   addr, err := netip.ParseAddr(strings.TrimSpace(ip));
   if (err != nil) {
      return "", errors.Wrapf(err, "Invalid IP address: [%s]", ip);
   }

   return addr.String(), nil;
}
