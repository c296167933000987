// Package middleware holds the HTTP middleware shared by the site pages and the JSON API.
package middleware
