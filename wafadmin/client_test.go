package wafadmin;

import (
   "context"
   "encoding/json"
   "io"
   "net/http"
   "net/http/httptest"
   "strings"
   "sync"
   "testing"

   "github.com/pkg/errors"

   "github.com/eriq-augustine/wafcanary/canary"
)

const TEST_TOKEN = "letmein";

type recordedRequest struct {
   Method string
   Path string
   Query string
   Token string
   ContentType string
   Body string
}

// Serves canned responses keyed by "METHOD /path" and records every request.
type fakeWAF struct {
   lock sync.Mutex
   requests []recordedRequest
   responses map[string]fakeResponse
}

type fakeResponse struct {
   status int
   body string
}

func newFakeWAF(t *testing.T) (*fakeWAF, *Client) {
   var waf *fakeWAF = &fakeWAF{
      requests: make([]recordedRequest, 0),
      responses: make(map[string]fakeResponse),
   };

   server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
      body, _ := io.ReadAll(request.Body);

      waf.lock.Lock();
      defer waf.lock.Unlock();

      waf.requests = append(waf.requests, recordedRequest{
         Method: request.Method,
         Path: request.URL.EscapedPath(),
         Query: request.URL.RawQuery,
         Token: request.Header.Get(HEADER_ADMIN_TOKEN),
         ContentType: request.Header.Get("Content-Type"),
         Body: string(body),
      });

      response, ok := waf.responses[request.Method + " " + request.URL.Path];
      if (!ok) {
         response = fakeResponse{http.StatusOK, `{"ok":true}`};
      }

      writer.WriteHeader(response.status);
      io.WriteString(writer, response.body);
   }));
   t.Cleanup(server.Close);

   var config Config = DefaultConfig();
   config.ApiBase = server.URL + "/";
   config.Token = TEST_TOKEN;
   config.PageSize = 25;

   return waf, NewClientWithHTTP(config, server.Client(), nil);
}

func (this *fakeWAF) respond(key string, response fakeResponse) {
   this.lock.Lock();
   defer this.lock.Unlock();

   this.responses[key] = response;
}

func (this *fakeWAF) count() int {
   this.lock.Lock();
   defer this.lock.Unlock();

   return len(this.requests);
}

func (this *fakeWAF) last(t *testing.T) recordedRequest {
   this.lock.Lock();
   defer this.lock.Unlock();

   if (len(this.requests) == 0) {
      t.Fatal("no request was made");
   }

   return this.requests[len(this.requests) - 1];
}

func decodeBody(t *testing.T, body string) map[string]interface{} {
   var decoded map[string]interface{};
   err := json.Unmarshal([]byte(body), &decoded);
   if (err != nil) {
      t.Fatalf("request body is not JSON: %q", body);
   }

   return decoded;
}

func TestHealth(t *testing.T) {
   waf, client := newFakeWAF(t);
   waf.respond("GET /admin/health", fakeResponse{http.StatusOK, `{"status":"ok"}`});

   status, err := client.Health(context.Background());
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (status["status"] != "ok") {
      t.Fatalf("got %v", status);
   }

   var request recordedRequest = waf.last(t);
   if (request.Path != "/admin/health" || request.Token != TEST_TOKEN) {
      t.Fatalf("unexpected request: %+v", request);
   }

   if (request.ContentType != "") {
      t.Fatalf("GET should not carry a content type: %+v", request);
   }
}

func TestHealthRawBody(t *testing.T) {
   waf, client := newFakeWAF(t);
   waf.respond("GET /admin/health", fakeResponse{http.StatusOK, "OK"});

   status, err := client.Health(context.Background());
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (status["raw"] != "OK") {
      t.Fatalf("got %v", status);
   }
}

func TestListCanaries(t *testing.T) {
   waf, client := newFakeWAF(t);
   waf.respond("GET /admin/canaries", fakeResponse{http.StatusOK, `{"cursor":7,"hashes":["aa","bb"]}`});

   page, err := client.ListCanaries(context.Background(), 3, 0);
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (page.Cursor != 7 || len(page.Hashes) != 2 || !page.HasNext()) {
      t.Fatalf("got %+v", page);
   }

   if (waf.last(t).Query != "cursor=3&count=25") {
      t.Fatalf("got query %q", waf.last(t).Query);
   }

   waf.respond("GET /admin/canaries", fakeResponse{http.StatusOK, `{"cursor":0,"hashes":[]}`});
   page, err = client.ListCanaries(context.Background(), 0, 10);
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (page.HasNext()) {
      t.Fatal("zero cursor should mean no next page");
   }

   if (waf.last(t).Query != "cursor=0&count=10") {
      t.Fatalf("got query %q", waf.last(t).Query);
   }
}

func TestAddHashes(t *testing.T) {
   waf, client := newFakeWAF(t);
   var hash string = canary.Hash("alice", "wonderland");

   count, err := client.AddHashes(context.Background(), []string{" " + strings.ToUpper(hash) + " "});
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (count != 1) {
      t.Fatalf("got count %d", count);
   }

   var request recordedRequest = waf.last(t);
   if (request.Method != http.MethodPost || request.Path != "/admin/canaries" || request.ContentType != "application/json") {
      t.Fatalf("unexpected request: %+v", request);
   }

   hashes := decodeBody(t, request.Body)["hashes"].([]interface{});
   if (len(hashes) != 1 || hashes[0] != hash) {
      t.Fatalf("got body %s", request.Body);
   }
}

func TestAddHashesInvalid(t *testing.T) {
   waf, client := newFakeWAF(t);

   _, err := client.AddHashes(context.Background(), []string{canary.Hash("a", "b"), "nothex"});
   if _, ok := errors.Cause(err).(*canary.InvalidHashError); (!ok) {
      t.Fatalf("expected *canary.InvalidHashError, got %v", err);
   }

   if (waf.count() != 0) {
      t.Fatal("no request should be made with an invalid hash");
   }
}

func TestAddHashesEmpty(t *testing.T) {
   waf, client := newFakeWAF(t);

   count, err := client.AddHashes(context.Background(), nil);
   if (err != nil || count != 0) {
      t.Fatalf("got (%d, %v)", count, err);
   }

   if (waf.count() != 0) {
      t.Fatal("no request should be made for an empty list");
   }
}

func TestAddCredentialsSendsOnlyHashes(t *testing.T) {
   waf, client := newFakeWAF(t);

   _, err := client.AddCredentials(context.Background(), []canary.Credential{{Username: "bob", Password: "hunter2"}});
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   var request recordedRequest = waf.last(t);
   if (strings.Contains(request.Body, "hunter2") || strings.Contains(request.Body, "bob")) {
      t.Fatalf("plaintext credential was sent: %s", request.Body);
   }

   if (!strings.Contains(request.Body, canary.Hash("bob", "hunter2"))) {
      t.Fatalf("hash missing from body: %s", request.Body);
   }
}

func TestDeleteCanaries(t *testing.T) {
   waf, client := newFakeWAF(t);
   var hash string = canary.Hash("a", "b");

   count, err := client.DeleteCanaries(context.Background(), []string{hash}, []canary.Credential{{Username: "c", Password: "d"}});
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (count != 2) {
      t.Fatalf("got count %d", count);
   }

   var request recordedRequest = waf.last(t);
   if (request.Method != http.MethodDelete || request.Path != "/admin/canaries") {
      t.Fatalf("unexpected request: %+v", request);
   }

   body := decodeBody(t, request.Body);
   hashes := body["hashes"].([]interface{});
   if (len(hashes) != 2 || hashes[0] != hash || hashes[1] != canary.Hash("c", "d")) {
      t.Fatalf("got body %s", request.Body);
   }

   credentials, ok := body["credentials"].([]interface{});
   if (!ok || len(credentials) != 0) {
      t.Fatalf("credentials should be an empty list: %s", request.Body);
   }
}

func TestBans(t *testing.T) {
   waf, client := newFakeWAF(t);
   waf.respond("GET /admin/bans", fakeResponse{http.StatusOK, `{"cursor":0,"bans":[{"ip":"203.0.113.5","ttlSeconds":60}]}`});
   waf.respond("GET /admin/ban/203.0.113.5", fakeResponse{http.StatusOK, `{"ip":"203.0.113.5","ttlSeconds":59}`});

   page, err := client.ListBans(context.Background(), 0, 0);
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (len(page.Bans) != 1 || page.Bans[0].IP != "203.0.113.5" || page.Bans[0].TTLSeconds != 60 || page.HasNext()) {
      t.Fatalf("got %+v", page);
   }

   err = client.Ban(context.Background(), " 203.0.113.5 ", 3600);
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   body := decodeBody(t, waf.last(t).Body);
   if (body["ip"] != "203.0.113.5" || body["ttlSeconds"] != float64(3600)) {
      t.Fatalf("got body %s", waf.last(t).Body);
   }

   ban, err := client.GetBan(context.Background(), "203.0.113.5");
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (ban.TTLSeconds != 59) {
      t.Fatalf("got %+v", ban);
   }

   err = client.Unban(context.Background(), "203.0.113.5");
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (waf.last(t).Method != http.MethodDelete || waf.last(t).Path != "/admin/ban/203.0.113.5") {
      t.Fatalf("unexpected request: %+v", waf.last(t));
   }
}

func TestBanValidation(t *testing.T) {
   waf, client := newFakeWAF(t);

   if (client.Ban(context.Background(), "not-an-ip", 60) == nil) {
      t.Fatal("expected an error for a bad IP");
   }

   if (client.Ban(context.Background(), "10.0.0.1", -1) == nil) {
      t.Fatal("expected an error for a negative TTL");
   }

   if (client.Unban(context.Background(), "") == nil) {
      t.Fatal("expected an error for an empty IP");
   }

   if (waf.count() != 0) {
      t.Fatal("no requests should be made");
   }
}

func TestHTTPErrors(t *testing.T) {
   testCases := []struct {
      name string
      response fakeResponse
      expected string
   }{
      {"error field", fakeResponse{http.StatusUnauthorized, `{"error":"bad token","detail":"x"}`}, "HTTP 401: bad token"},
      {"detail field", fakeResponse{http.StatusBadRequest, `{"detail":"missing ip"}`}, "HTTP 400: missing ip"},
      {"status text", fakeResponse{http.StatusNotFound, `not json`}, "HTTP 404: Not Found"},
      {"empty body", fakeResponse{http.StatusInternalServerError, ``}, "HTTP 500: Internal Server Error"},
   };

   for _, testCase := range(testCases) {
      t.Run(testCase.name, func(t *testing.T) {
         waf, client := newFakeWAF(t);
         waf.responses["GET /admin/health"] = testCase.response;

         _, err := client.Health(context.Background());
         httpErr, ok := errors.Cause(err).(*HTTPError);
         if (!ok) {
            t.Fatalf("expected *HTTPError, got %v", err);
         }

         if (httpErr.Error() != testCase.expected) {
            t.Fatalf("got %q, want %q", httpErr.Error(), testCase.expected);
         }

         if (httpErr.Status != testCase.response.status) {
            t.Fatalf("got status %d", httpErr.Status);
         }
      });
   }
}

func TestNewClient(t *testing.T) {
   var config Config = DefaultConfig();
   config.Insecure = true;

   client, err := NewClient(config, nil);
   if (err != nil) {
      t.Fatalf("unexpected error: %+v", err);
   }

   if (client.Config().ApiBase != DEFAULT_API_BASE) {
      t.Fatalf("got %+v", client.Config());
   }
}
