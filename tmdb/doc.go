// Package tmdb provides a client for the movie database's authentication and
// favorites API.
//
// # Authentication
//
// Logging in is a chain of four requests, each started only after the previous
// one succeeded:
//
//	request token -> validate with login -> new session -> account id
//
// The Authenticator runs the chain, storing each credential in an explicitly
// passed Session and reporting progress to an Observer:
//
//	client, err := tmdb.NewClient(apiKey, logger)
//	if err != nil {
//		return err
//	}
//
//	var session tmdb.Session
//	auth := tmdb.NewAuthenticator(client, observer, logger)
//	if err := auth.Login(ctx, tmdb.Credentials{Username: u, Password: p}, &session); err != nil {
//		fmt.Println(tmdb.Reason(err))
//	}
//
// # Favorites
//
//	movies, err := client.FetchFavorites(ctx, session)
//	result, err := client.ToggleFavorite(ctx, session, movieID, true)
//
// # Error Handling
//
// Every call ends in exactly one of:
//
//   - TransportError: no response (network failure, cancellation)
//   - HTTPStatusError: a status outside 200-299; the body is not inspected
//   - DecodeError: a body that is not a JSON object
//   - APIError: a response carrying status_code/status_message
//   - ValidationError: bad input or a missing response key
//
// Classify returns the kind and Reason a message suitable for users.
package tmdb
