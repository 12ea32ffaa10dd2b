// Command bookreel is the CLI for the book promo generation engine: it runs
// generation jobs, inspects past jobs, and manages the result cache and
// configuration.
package main
