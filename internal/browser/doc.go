// Package browser ties the page-acquisition pipeline together: URL
// resolution, scheme dispatch (http, https, file, data, view-source),
// content decoding and line layout. Hosts drive it through Fetch, Load
// and Layout; window plumbing and painting stay outside.
package browser
