// Package records serves JSON record collections over net/http in the shape
// the remote fetcher consumes: {"data": [{"id": ..., ...attributes}]}.
//
// The collection route filters with the q parameter and pages with limit and
// offset; total counts every match. Single records are served at
// <route>/{id}. Failures answer with {"error": "..."}. Without configured
// records the embedded sample collection under data/authors.json is served.
package records
