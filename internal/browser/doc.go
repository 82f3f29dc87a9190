// Package browser drives a Chrome session that creates 10fastfingers competitions.
//
// A Session is a scoped resource: Open starts the browser and the caller must
// defer Close, which is safe to call more than once. Logging in goes through the
// Twitter button on the 10fastfingers login page, so the credentials are
// Twitter credentials.
package browser
