// Package templates страницы приложения, вшитые в бинарник.
package templates

import "embed"

//go:embed *.html
var FS embed.FS

// Layout общий каркас, в который вставляется блок "content" страницы.
const Layout = "layout.html"
