// Package auth provides Google OAuth2 authentication for jobmail.
//
// Tokens are stored in the token.json format written by Python's google-auth
// library, so a token created by other Gmail tooling can be reused as is.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested by jobmail. Mail is only ever read.
var Scopes = []string{gmail.GmailReadonlyScope}

// Paths locates the OAuth client secret and the cached token.
type Paths struct {
	Credentials string
	Token       string
}

// pythonToken represents the token.json format written by Python's google-auth library.
type pythonToken struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

const expiryLayout = "2006-01-02T15:04:05.999999Z"

// ErrNoToken is returned when no cached token exists yet.
var ErrNoToken = errors.New("no saved token; run `jm auth` first")

// LoadGmailService returns an authenticated Gmail API service.
func LoadGmailService(ctx context.Context, p Paths, log logrus.FieldLogger) (*gmail.Service, error) {
	client, err := getClient(ctx, p, log)
	if err != nil {
		return nil, fmt.Errorf("get oauth client: %w", err)
	}
	return gmail.NewService(ctx, option.WithHTTPClient(client))
}

// getClient returns an HTTP client from the cached token, refreshing and
// re-saving it when needed.
func getClient(ctx context.Context, p Paths, log logrus.FieldLogger) (*http.Client, error) {
	config, err := loadOAuthConfig(p.Credentials)
	if err != nil {
		return nil, err
	}

	token, err := loadPythonToken(p.Token)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("load token from %s: %w", p.Token, err)
	}

	ts := config.TokenSource(ctx, token)
	newToken, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		log.Info("Refreshed expired credentials")
		if saveErr := savePythonToken(p.Token, newToken, config); saveErr != nil {
			log.WithError(saveErr).Warn("Could not save refreshed token")
		}
	}

	return oauth2.NewClient(ctx, ts), nil
}

// Authorize runs the installed-app consent flow: it serves a loopback
// redirect, asks the user to open the consent URL and saves the token.
func Authorize(ctx context.Context, p Paths, out io.Writer, log logrus.FieldLogger) error {
	config, err := loadOAuthConfig(p.Credentials)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}
	config.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state := uuid.NewString()
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			}
			if e := q.Get("error"); e != "" {
				fmt.Fprintln(w, "Authorization failed. You may close this window.")
				errs <- fmt.Errorf("authorization denied: %s", e)
				return
			}
			fmt.Fprintln(w, "Authorization complete. You may close this window.")
			codes <- q.Get("code")
		}),
	}
	go srv.Serve(ln)
	defer srv.Close()

	url := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open this URL in your browser to authorize read-only Gmail access:\n\n  %s\n\n", url)
	log.WithField("redirect", config.RedirectURL).Debug("Waiting for OAuth redirect")

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := savePythonToken(p.Token, token, config); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	log.WithField("path", p.Token).Info("Credentials saved")
	return nil
}

// loadOAuthConfig reads credentials.json and returns an OAuth2 config.
func loadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials from %s: %w", credentialsPath, err)
	}
	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

// loadPythonToken reads a token.json file in google-auth format.
func loadPythonToken(tokenPath string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}

	var pt pythonToken
	if err := json.Unmarshal(data, &pt); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	// Python writes ISO 8601 with microseconds.
	var expiry time.Time
	if pt.Expiry != "" {
		for _, layout := range []string{expiryLayout, "2006-01-02T15:04:05Z", time.RFC3339Nano} {
			if t, err := time.Parse(layout, pt.Expiry); err == nil {
				expiry = t
				break
			}
		}
	}

	return &oauth2.Token{
		AccessToken:  pt.Token,
		RefreshToken: pt.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, nil
}

// savePythonToken writes a token back in google-auth format.
func savePythonToken(tokenPath string, token *oauth2.Token, config *oauth2.Config) error {
	pt := pythonToken{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     config.Endpoint.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       Scopes,
		Expiry:       token.Expiry.UTC().Format(expiryLayout),
	}

	data, err := json.MarshalIndent(pt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath, data, 0o600)
}
