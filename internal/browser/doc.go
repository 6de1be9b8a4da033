// Package browser drives the automationpractice.pl storefront through
// Chrome DevTools (chromedp) and implements harness.Session.
//
// Only Chromium-family browsers are supported: "chromium", "chrome" and
// "msedge". Every session owns its own browser process (or, with a remote
// allocator, its own target), so concurrent units never share page state.
package browser
