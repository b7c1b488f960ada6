package sunxdcc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"xdcc-search/lib/htmlutil"
	"xdcc-search/lib/xdcc"
)

// response mirrors the deliver.php document: eight parallel string
// arrays where record i is the i-th element of each.
type response struct {
	Botrec  []string `json:"botrec"`
	Network []string `json:"network"`
	Bot     []string `json:"bot"`
	Channel []string `json:"channel"`
	Packnum []string `json:"packnum"`
	Gets    []string `json:"gets"`
	Fsize   []string `json:"fsize"`
	Fname   []string `json:"fname"`
}

// Result is one parsed page. Skipped counts records dropped because a
// field failed to decode; entries keep the upstream order.
type Result struct {
	Entries []xdcc.Entry
	Skipped int
}

// Parse normalizes a raw response body. Empty bodies and bodies with no
// matches yield an empty Result, not an error; only a body that cannot
// be read at all yields a *xdcc.ParseError.
//
// Two shapes are understood: the current parallel-array JSON document,
// and the older line-oriented "::"-delimited listing the service served
// before it, which may carry stray markup.
func Parse(ctx context.Context, body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Result{}, nil
	}
	if trimmed[0] == '{' {
		return parseArrays(ctx, trimmed)
	}
	return parseLegacy(ctx, trimmed)
}

func parseArrays(ctx context.Context, body []byte) (Result, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, &xdcc.ParseError{
			Reason: "response is not the expected parallel-array document",
			Err:    err,
		}
	}
	// an object carrying none of the known arrays (error pages and the
	// like) is unparseable, not a no-matches page; present-but-empty
	// arrays stay a plain empty result
	if resp.Botrec == nil && resp.Network == nil && resp.Bot == nil &&
		resp.Channel == nil && resp.Packnum == nil && resp.Gets == nil &&
		resp.Fsize == nil && resp.Fname == nil {
		return Result{}, &xdcc.ParseError{Reason: "no known arrays in response"}
	}

	var out Result
	for i := range resp.Fname {
		entry, err := decodeRecord(record{
			fname:   at(resp.Fname, i),
			fsize:   at(resp.Fsize, i),
			gets:    at(resp.Gets, i),
			packnum: at(resp.Packnum, i),
			channel: at(resp.Channel, i),
			network: at(resp.Network, i),
			bot:     at(resp.Bot, i),
			botrec:  at(resp.Botrec, i),
		})
		if err != nil {
			slog.DebugContext(ctx, "unable to decode entry", "index", i, "err", err)
			out.Skipped++
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

// at tolerates arrays of uneven length; older response variants omit
// whole columns.
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// legacyMinFields is the structural predicate separating records from
// boilerplate: packnum, bot, network, channel, filename and size. The
// gets column is absent in the oldest variants.
const legacyMinFields = 6

func parseLegacy(ctx context.Context, body []byte) (Result, error) {
	var out Result
	for i, line := range strings.Split(string(body), "\n") {
		text := htmlutil.Text(line)
		fields := strings.Split(text, "::")
		if len(fields) < legacyMinFields {
			// header/footer markup, empty lines, no-match notices
			continue
		}
		rec := record{
			packnum: fields[0],
			bot:     fields[1],
			network: fields[2],
			channel: fields[3],
			fname:   fields[4],
			fsize:   fields[5],
		}
		if len(fields) > 6 {
			rec.gets = fields[6]
		}
		if len(fields) > 7 {
			rec.botrec = fields[7]
		}

		entry, err := decodeRecord(rec)
		if err != nil {
			slog.DebugContext(ctx, "unable to decode entry", "line", i, "err", err)
			out.Skipped++
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}
