// Package render turns template sources into file content for render
// actions.
//
// Templates use Go text/template syntax with missing keys treated as errors.
// Handlebars (.hbs) sources are passed through verbatim because their {{ }}
// syntax conflicts with text/template.
package render
