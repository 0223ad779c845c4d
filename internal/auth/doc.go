// Package auth owns the session lifecycle: hydration at startup, the interactive
// authorization-code login, logout, and silent refresh.
//
// # Flow
//
// [Controller.Login] generates a random state, builds the authorization URL with the fixed
// [Scopes], and hands it to a [Browser]. The redirect it returns is checked against the state
// before the code is exchanged at the token endpoint with HTTP Basic client credentials
// ([oauth2.AuthStyleInHeader]). The resulting record is persisted before the session flips to
// authenticated, so a storage failure leaves the user logged out.
//
// # Refresh
//
// While a credential is present a [tasks.Scheduler] job named [RefreshJob] calls
// [Controller.Refresh] on a fixed interval. The job starts and stops with the session itself,
// so no caller has to remember to cancel it. A failed refresh logs the user out.
//
// # Errors
//
// Login and refresh failures wrap [shared.ErrAuthExchange]. A user who closes the browser or
// denies access gets [shared.ErrAuthCancelled] inside it. Persistence failures wrap
// [shared.ErrStorage]. Logout never fails.
package auth
