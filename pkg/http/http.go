package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

var DefaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// NewRetryableClient returns a client that retries transient failures
// with exponential backoff. Useful for discovery and jwks refreshes
// against a flaky provider.
func NewRetryableClient(retryMax int) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second
	return client.StandardClient()
}

type Decoder interface {
	Decode(dst any, src map[string][]string) error
}

type Encoder interface {
	Encode(src any, dst map[string][]string) error
}

type FormAuthorization func(url.Values)
type RequestAuthorization func(*http.Request)

func AuthorizeBasic(user, password string) RequestAuthorization {
	return func(req *http.Request) {
		req.SetBasicAuth(url.QueryEscape(user), url.QueryEscape(password))
	}
}

func AuthorizeBearer(token string) RequestAuthorization {
	return func(req *http.Request) {
		req.Header.Set("authorization", "Bearer "+token)
	}
}

// StatusError reports a non-2xx response whose body did not carry a
// protocol level error object.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status not ok: %s %s", e.Status, e.Body)
}

func FormRequest(ctx context.Context, endpoint string, request any, encoder Encoder, authFn any) (*http.Request, error) {
	form := url.Values{}
	if err := encoder.Encode(request, form); err != nil {
		return nil, err
	}
	if fn, ok := authFn.(FormAuthorization); ok {
		fn(form)
	}
	body := strings.NewReader(form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	if fn, ok := authFn.(RequestAuthorization); ok {
		fn(req)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// HttpRequest executes the request and unmarshals the JSON body into
// response. On error statuses the body is probed for an OAuth error
// object first; when one is present it is decoded into errResponse and
// returned, otherwise a StatusError carries the raw body.
func HttpRequest(client *http.Client, req *http.Request, response any) error {
	return httpRequest(client, req, response, nil)
}

// HttpRequestWithErrorTarget behaves like HttpRequest but decodes wire
// level error objects into errResponse, which must implement error.
func HttpRequestWithErrorTarget(client *http.Client, req *http.Request, response any, errResponse error) error {
	return httpRequest(client, req, response, errResponse)
}

func httpRequest(client *http.Client, req *http.Request, response any, errResponse error) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unable to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if errResponse != nil && gjson.GetBytes(body, "error").Exists() {
			if err := json.Unmarshal(body, errResponse); err == nil {
				return errResponse
			}
		}
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}
	}

	err = json.Unmarshal(body, response)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response: %v %s", err, body)
	}
	return nil
}

func URLEncodeParams(resp any, encoder Encoder) (url.Values, error) {
	values := make(map[string][]string)
	err := encoder.Encode(resp, values)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func StartServer(ctx context.Context, port string) {
	server := &http.Server{Addr: port}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		err := server.Shutdown(ctxShutdown)
		if err != nil {
			log.Fatalf("Shutdown(): %v", err)
		}
	}()
}
