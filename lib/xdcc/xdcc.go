// Package xdcc defines the value types and the engine contract shared by
// every XDCC pack search backend.
package xdcc

import "context"

// Entry is one discovered pack, normalized from whatever decorated form
// the upstream aggregator reports it in.
type Entry struct {
	// Filename is the name of the offered file.
	Filename string
	// Filesize is the size of the file in bytes.
	Filesize int64
	// Downloads is how many times the pack has been fetched.
	Downloads int64
	// Packnum is the number used to request the pack from the bot.
	Packnum int64
	// Channel is the IRC channel the bot sits in.
	Channel string
	// Network is the IRC network hosting the bot.
	Network string
	// Bot is the name of the bot sharing the file.
	Bot string
	// BotSpeed is the upload speed the bot reports, in bytes per
	// second. Zero when the aggregator does not report one.
	BotSpeed int64
}

// Engine is the contract any search backend must fulfill. Implementations
// are stateless per call; concurrent Search calls must not interfere.
type Engine interface {
	Name() string
	// Search fetches one page of results for the query. Page numbering
	// starts at 1. Entries come back in the order the upstream returned
	// them.
	Search(ctx context.Context, query string, page int) ([]Entry, error)
}
