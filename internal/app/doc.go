// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the inspect/dispatch lifecycle around a
// dispatcher instance, decoupled from any specific entrypoint like a CLI.
package app
