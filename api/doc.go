// Package api exposes a payermatch Service over HTTP.
//
// Routes:
//
//	POST /transactions/{id}?threshold=60
//	POST /transactions/semantic_search/{query}?threshold=0.4&preprocess=true&include_description=true&limit=20
//	GET  /transactions/transactions_with_users?threshold=60
//	GET  /healthz
//
// Errors are returned as {"detail": "..."} with 400 for an empty query,
// 404 for an unknown transaction, 422 for invalid parameters and 500
// otherwise.
package api
