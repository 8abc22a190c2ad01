// Package environment resolves the APP_ENV value into a typed Environment.
// The logger picks its preset from it and the service refuses local-only
// backends in deployed environments.
package environment
