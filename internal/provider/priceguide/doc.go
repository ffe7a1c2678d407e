// Package priceguide fetches six-month sales and current listing prices for a
// minifigure from the public BrickLink price guide summary page.
//
// No credentials are required. Requests are not retried.
package priceguide
