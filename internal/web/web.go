// Package web embeds the chat and admin pages served at the root route.
package web

import _ "embed"

//go:embed chat.html
var ChatHTML string

//go:embed admin.html
var AdminHTML string
