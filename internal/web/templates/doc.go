// Package templates holds the HTML components of the form UI. Components
// are written in .templ files; run `templ generate` after editing them.
package templates
