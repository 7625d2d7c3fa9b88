package api

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// NewHTTPClient returns the shared HTTP session used for every API call.
// Cookies set by the login response are replayed on later requests.
// A nil tlsConfig uses the default transport settings.
func NewHTTPClient(tlsConfig *tls.Config) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Jar:       jar,
		Transport: transport,
	}, nil
}
