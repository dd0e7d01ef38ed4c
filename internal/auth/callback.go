package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/shared"
)

// Callback query parameters delivered by the backend after a provider login.
const (
	ParamAccessToken        = "access_token"
	ParamRefreshToken       = "refresh_token"
	ParamSpotifyAccessToken = "spotify_access_token"
	ParamError              = "error"
)

// LoginURL is where the browser is sent to start a provider login.
func LoginURL(apiBaseURL string) string {
	return strings.TrimRight(apiBaseURL, "/") + "/auth/login"
}

// ParseCallback extracts the credential triple from callback query values.
//
// An error parameter, a missing access token or a missing provider token is a failed login.
// The refresh token is optional.
func ParseCallback(values url.Values) (models.Credentials, error) {
	if msg := values.Get(ParamError); msg != "" {
		return models.Credentials{}, fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}

	creds := models.Credentials{
		PrimaryAccess:  values.Get(ParamAccessToken),
		PrimaryRefresh: values.Get(ParamRefreshToken),
		ProviderAccess: values.Get(ParamSpotifyAccessToken),
	}

	switch {
	case creds.PrimaryAccess == "":
		return models.Credentials{}, fmt.Errorf("%w: missing %s", shared.ErrAuthFailed, ParamAccessToken)
	case creds.ProviderAccess == "":
		return models.Credentials{}, fmt.Errorf("%w: missing %s", shared.ErrAuthFailed, ParamSpotifyAccessToken)
	}

	return creds, nil
}

// ParseCallbackURL parses a pasted callback URL. Tokens may arrive in the query or the fragment.
func ParseCallbackURL(raw string) (models.Credentials, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%w: invalid callback url: %v", shared.ErrInvalidArgument, err)
	}

	values := u.Query()
	if values.Get(ParamAccessToken) == "" && values.Get(ParamError) == "" && u.Fragment != "" {
		if fragment, err := url.ParseQuery(u.Fragment); err == nil {
			values = fragment
		}
	}
	return ParseCallback(values)
}
