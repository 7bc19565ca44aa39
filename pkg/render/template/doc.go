// Package template defines the template engine contract used by code
// generation backends, with a pongo2-backed implementation in gotemplate.
package template
