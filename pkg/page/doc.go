// Package page drives a parsed HTML document from a config.Document.
//
// A Controller owns the visibility rules, field lists, endpoints and reveal
// sequences declared for one page. Input, click and submit events are routed
// through Handle; every callback that originates off the UI goroutine
// (timers, debounced refreshes, asynchronous fetches) is funneled through the
// configured loop.Dispatcher.
package page
