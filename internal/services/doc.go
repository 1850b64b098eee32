// Package services defines the [CatalogSearch] and [ListStore] interfaces consumed by the sync engine
// and implements them for The Movie Database (TMDb).
//
// # Collaborator Interfaces
//
// The engine never sees HTTP responses. Adapters convert provider JSON into [models.CatalogMatch],
// [models.TargetList] and [models.ListItem] values, so a different catalog only needs a new adapter.
//
// # TMDb Implementation
//
// [TMDbService] talks to the v3 REST API. Requests are authorized either with an api_key query
// parameter or, when a v4 read access token is configured, with a bearer token applied by an
// [oauth2.Transport] built from a static token source. Account-scoped calls (lists, create,
// add_item) also carry the session_id obtained through the request-token approval flow:
//
//  1. [TMDbService.RequestToken] creates a short-lived request token
//  2. the user approves it at [TMDbService.ApproveURL] (the CLI opens a browser)
//  3. [TMDbService.CreateSession] exchanges the approved token for a session id
//
// Every request waits on a client-side [rate.Limiter] before it is sent.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : missing session or rejected credentials
//   - [shared.ErrDuplicateItem] : TMDb status_code 8 on add_item
//   - [shared.ErrListNotFound] : list id does not exist
//   - [shared.ErrAPIRequest] : any other failed request
package services
