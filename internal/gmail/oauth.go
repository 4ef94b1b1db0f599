package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/TysunM/subzero/internal/model"
)

// OAuthSettings holds the application's Gmail OAuth client settings.
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// defaultRedirectURL is used by the interactive CLI flow, which runs its own
// loopback listener.
const defaultRedirectURL = "http://localhost:8484/callback"

// callbackTimeout bounds how long the interactive flow waits for the user to
// finish in the browser.
const callbackTimeout = 5 * time.Minute

// OAuthConfig builds the oauth2 configuration for Gmail read-only access.
func OAuthConfig(settings OAuthSettings) *oauth2.Config {
	redirect := settings.RedirectURL
	if redirect == "" {
		redirect = defaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       []string{gmailapi.GmailReadonlyScope},
	}
}

// AuthURL returns the consent page URL for the given state. Offline access
// is requested so a refresh token is issued.
func AuthURL(config *oauth2.Config, state string) string {
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for credentials belonging to userID.
func Exchange(ctx context.Context, config *oauth2.Config, userID, code string) (*model.Credentials, error) {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return credentialsFromToken(userID, token), nil
}

// Connector runs the web OAuth flow: it hands out consent URLs and stores
// the credentials the callback code exchanges for.
type Connector struct {
	config *oauth2.Config
	tokens *TokenStore
}

// NewConnector creates a Connector over the given OAuth configuration and
// token store.
func NewConnector(config *oauth2.Config, tokens *TokenStore) *Connector {
	return &Connector{config: config, tokens: tokens}
}

// AuthURL returns the consent page URL for the given state.
func (c *Connector) AuthURL(state string) string {
	return AuthURL(c.config, state)
}

// Connect exchanges the callback authorization code and persists the
// resulting credentials for the user.
func (c *Connector) Connect(ctx context.Context, userID, code string) error {
	creds, err := Exchange(ctx, c.config, userID, code)
	if err != nil {
		return err
	}
	return c.tokens.Save(ctx, creds)
}

// AuthorizeInteractive runs the full OAuth flow for a terminal user: it
// starts a loopback callback server, prints the consent URL, and waits for
// the browser redirect.
func AuthorizeInteractive(ctx context.Context, config *oauth2.Config, userID string) (*model.Credentials, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			fmt.Fprint(w, "<html><body><h1>Authorization failed</h1><p>No code received. Please try again.</p></body></html>")
			return
		}
		codeChan <- code
		fmt.Fprint(w, "<html><body><h1>Gmail connected</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	server := &http.Server{
		Addr:              ":8484",
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("shutting down callback server", "error", err)
		}
	}()

	authURL := AuthURL(config, "subzero-cli")
	slog.Info("Gmail authorization required")
	slog.Info("Visit this URL in your browser", "url", authURL)

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-time.After(callbackTimeout):
		return nil, fmt.Errorf("authorization timed out after %s", callbackTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return Exchange(ctx, config, userID, code)
}

func credentialsFromToken(userID string, token *oauth2.Token) *model.Credentials {
	return &model.Credentials{
		UserID:       userID,
		Provider:     model.ProviderGmail,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		UpdatedAt:    time.Now(),
	}
}
