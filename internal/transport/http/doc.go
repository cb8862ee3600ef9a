// Package http contains the chi handlers for the local API consumed by
// the desktop shell and, for the widget feed, by embedded third-party
// pages. Handlers bind and validate payloads, map errors onto the API
// error taxonomy, and delegate all work to the services.
package http
