// Package web provides embedded pages shown in the browser.
package web

import _ "embed"

// CallbackPage is shown after Spotify redirects back to the login listener.
//
//go:embed templates/callback.html
var CallbackPage []byte
