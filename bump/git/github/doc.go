// Package github opens pull requests on GitHub and GitHub
// Enterprise through the REST API.
package github
