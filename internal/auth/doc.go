// Package auth manages stored OAuth2 credentials for connected platform accounts.
//
// [TokenManager] hands out stored access tokens and performs refresh calls
// against each platform's token endpoint when an API call comes back 401.
// Tokens are never proactively checked for expiry; refresh is always driven by
// a caught 401 downstream.
package auth
