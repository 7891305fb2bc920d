package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// AuthState is the snapshot of the authenticated-session store.
type AuthState struct {
	// CurrentUser is nil when signed out.
	CurrentUser *User
	// Loading is true while a session operation is in flight.
	Loading bool
	// Err is the reason of the most recent failure, "" when none.
	Err string
}

// Auth session store events.
type (
	authStarted         struct{}
	authFailed          struct{ reason string }
	signInSucceeded     struct{ user User }
	signUpSucceeded     struct{}
	updateUserSucceeded struct{ user User }
	userCleared         struct{}
	avatarUpdated       struct{ path string }
	authErrorCleared    struct{}
	authRehydrated      struct{ snapshot AuthState }
)

func reduceAuth(s AuthState, ev event) AuthState {
	switch ev := ev.(type) {
	case authStarted:
		s.Loading = true
		s.Err = ""
	case authFailed:
		s.Loading = false
		s.Err = ev.reason
	case signInSucceeded:
		s.CurrentUser = &ev.user
		s.Loading = false
		s.Err = ""
	case signUpSucceeded:
		// Signing up does not sign the user in.
		s.Loading = false
		s.Err = ""
	case updateUserSucceeded:
		s.CurrentUser = &ev.user
		s.Loading = false
		s.Err = ""
	case userCleared:
		s.CurrentUser = nil
		s.Loading = false
		s.Err = ""
	case avatarUpdated:
		if s.CurrentUser != nil {
			user := *s.CurrentUser
			user.Avatar = ev.path
			s.CurrentUser = &user
		}
	case authErrorCleared:
		s.Err = ""
	case authRehydrated:
		// A persisted snapshot may have been written mid-operation. Only
		// the identity survives rehydration; transient flags reset.
		s = ev.snapshot
		s.Loading = false
		s.Err = ""
	}
	return s
}

// AuthStore holds the signed-in user and runs the session operations:
// sign-up, sign-in (credentials and Google), profile update, avatar
// update, account deletion, and sign-out.
type AuthStore struct {
	api *Client
	st  *store[AuthState]
}

// NewAuthStore creates a store with no signed-in user.
func NewAuthStore(api *Client) *AuthStore {
	return &AuthStore{
		api: api,
		st:  newStore(AuthState{}, reduceAuth),
	}
}

// Snapshot returns the current session state.
func (a *AuthStore) Snapshot() AuthState { return a.st.snapshot() }

// Subscribe registers fn to observe every state change. The returned
// function unsubscribes.
func (a *AuthStore) Subscribe(fn func(AuthState)) func() { return a.st.subscribe(fn) }

// Close stops the store's event loop.
func (a *AuthStore) Close() { a.st.close() }

// SignUp registers a new account. On success the user is NOT signed in —
// CurrentUser stays as it was and the caller routes to the sign-in flow.
func (a *AuthStore) SignUp(ctx context.Context, username, email, password string) error {
	a.st.dispatch(authStarted{})
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	if _, err := a.api.Call(ctx, http.MethodPost, "/api/auth/signup", body); err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	a.st.dispatch(signUpSucceeded{})
	return nil
}

// SignIn authenticates with email and password. On success CurrentUser is
// set and the session cookie is held by the adapter for later calls.
func (a *AuthStore) SignIn(ctx context.Context, email, password string) error {
	a.st.dispatch(authStarted{})
	body := map[string]string{"email": email, "password": password}
	raw, err := a.api.Call(ctx, http.MethodPost, "/api/auth/signin", body)
	if err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	return a.settleSignIn(raw)
}

// GoogleSignIn signs in with a Google profile (name, email, photo URL)
// obtained from the provider's consent flow. The account is upserted by
// email server-side.
func (a *AuthStore) GoogleSignIn(ctx context.Context, name, email, photo string) error {
	a.st.dispatch(authStarted{})
	body := map[string]string{"name": name, "email": email, "photo": photo}
	raw, err := a.api.Call(ctx, http.MethodPost, "/api/auth/google", body)
	if err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	return a.settleSignIn(raw)
}

func (a *AuthStore) settleSignIn(raw json.RawMessage) error {
	var payload struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.User.ID == "" {
		failure := &APIError{Message: genericErrorMessage}
		a.st.dispatch(authFailed{reason: failure.Message})
		return failure
	}
	a.st.dispatch(signInSucceeded{user: payload.User})
	return nil
}

// UpdateUser submits a partial profile update for the signed-in user.
// Zero-value fields in update are left out of the request so the server
// keeps the stored values; in particular an empty password is never sent.
func (a *AuthStore) UpdateUser(ctx context.Context, userID string, update UserUpdate) error {
	a.st.dispatch(authStarted{})
	raw, err := a.api.Call(ctx, http.MethodPut, "/api/user/update/"+userID, update)
	if err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	var payload struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.User.ID == "" {
		failure := &APIError{Message: genericErrorMessage}
		a.st.dispatch(authFailed{reason: failure.Message})
		return failure
	}
	a.st.dispatch(updateUserSucceeded{user: payload.User})
	return nil
}

// UpdateUserAvatar records a freshly uploaded avatar path locally. The
// path is persisted on the profile by a subsequent UpdateUser call.
func (a *AuthStore) UpdateUserAvatar(path string) {
	a.st.dispatch(avatarUpdated{path: path})
}

// DeleteUser deletes the signed-in user's account and clears the session.
func (a *AuthStore) DeleteUser(ctx context.Context, userID string) error {
	a.st.dispatch(authStarted{})
	if _, err := a.api.Call(ctx, http.MethodDelete, "/api/user/delete/"+userID, nil); err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	a.st.dispatch(userCleared{})
	return nil
}

// SignOutUser ends the session. The server clears the cookie; locally the
// user is dropped even if the call fails, matching the server's stance
// that sign-out always succeeds.
func (a *AuthStore) SignOutUser(ctx context.Context) error {
	a.st.dispatch(authStarted{})
	_, err := a.api.Call(ctx, http.MethodGet, "/api/auth/signout", nil)
	if err != nil {
		a.st.dispatch(authFailed{reason: reasonOf(err)})
		return err
	}
	a.st.dispatch(userCleared{})
	return nil
}

// ClearError drops the recorded error, typically when the user dismisses
// the message or navigates away. Idempotent.
func (a *AuthStore) ClearError() {
	a.st.dispatch(authErrorCleared{})
}

// Rehydrate restores a snapshot persisted from a previous run. Whatever
// transient state the snapshot was saved with, the store comes back idle:
// Loading false, no error, only CurrentUser carried over.
func (a *AuthStore) Rehydrate(snapshot AuthState) {
	a.st.dispatch(authRehydrated{snapshot: snapshot})
}
