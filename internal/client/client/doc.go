// Package client is the session core of the Veyra client.
//
// HTTPClient is the single path by which every resource call reaches the
// service. It logs in with a username and password, keeps the bearer token
// and the credentials, and applies one policy to every request:
//
//   - a token whose exp claim has passed (or cannot be read) is refreshed
//     before the request is sent;
//   - a 401 answer triggers one fresh login and one retry;
//   - any other non-2xx answer becomes a *RequestError;
//   - transport failures wrap ErrUnavailable.
//
// Response bodies are decoded according to their Content-Type. JSON that does
// not parse degrades to an empty body and is logged, never raised.
//
// Concurrent refreshes are collapsed into a single login.
//
// The package also bootstraps the CLI's SQLite store (InitDatabase,
// RunMigrations) from embedded goose migrations.
package client
