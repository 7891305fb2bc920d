package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// googleEndpoint is Google's OAuth 2.0 authorization and token endpoints.
// Defined inline instead of importing oauth2/google — these two URLs are the
// only thing that package would contribute here.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the portion of the Google userinfo response we care about.
// Google returns a larger object — we only unmarshal the fields we need.
type GoogleUser struct {
	Email   string `json:"email"`   // verified email, our upsert key
	Name    string `json:"name"`    // display name, seeds the username
	Picture string `json:"picture"` // profile photo URL
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code flow.
//
// FLOW:
//  1. The server redirects the user to Google's authorization endpoint.
//  2. The user approves; Google redirects back with a short-lived "code".
//  3. The server exchanges the code for an access token (server-to-server,
//     using the ClientSecret — the token never touches the browser).
//  4. The server calls the userinfo API and upserts the account by email.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// ClientID and ClientSecret come from a Google Cloud OAuth client
// registration; callbackURL must match the authorized redirect URI exactly.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: googleEndpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback handler verifies the returned state matches, which prevents CSRF
// attacks where an attacker completes an OAuth flow for their own account
// in the victim's browser.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google user profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that automatically adds
	// the "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.Email == "" {
		return nil, fmt.Errorf("auth: Google returned a user with no email")
	}

	return &gUser, nil
}
