package remote

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-dynui/pkg/record"
)

// Endpoint describes an HTTP resource returning a JSON record collection.
type Endpoint struct {
	Name    string
	URL     string
	Method  string
	Headers map[string]string
	Query   map[string]string

	// ResultsPath, IDField and AttributesPath locate the records inside the
	// response; see record.Shape.
	ResultsPath    string
	IDField        string
	AttributesPath string

	Timeout time.Duration
}

// Label returns the name used in logs and errors.
func (e Endpoint) Label() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	return e.URL
}

// Shape returns the decoding shape of the endpoint payload.
func (e Endpoint) Shape() record.Shape {
	return record.Shape{
		ResultsPath:    e.ResultsPath,
		IDField:        e.IDField,
		AttributesPath: e.AttributesPath,
	}
}

// Validate reports configuration mistakes that no request could fix.
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.URL) == "" {
		return errors.New("remote: endpoint url is required")
	}
	u, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("remote: endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote: unsupported scheme %q", u.Scheme)
	}
	switch e.method() {
	case http.MethodGet, http.MethodPost:
	default:
		return fmt.Errorf("remote: unsupported method %q", e.Method)
	}
	return nil
}

func (e Endpoint) method() string {
	if m := strings.ToUpper(strings.TrimSpace(e.Method)); m != "" {
		return m
	}
	return http.MethodGet
}

func (e Endpoint) requestURL() (string, error) {
	u, err := url.Parse(e.URL)
	if err != nil {
		return "", err
	}
	if len(e.Query) > 0 {
		q := u.Query()
		for k, v := range e.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
