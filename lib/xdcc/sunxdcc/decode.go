package sunxdcc

import (
	"strconv"
	"strings"
	"xdcc-search/lib/htmlutil"
	"xdcc-search/lib/xdcc"
)

// record carries one listing's raw fields, named after the upstream
// columns.
type record struct {
	fname   string
	fsize   string
	gets    string
	packnum string
	channel string
	network string
	bot     string
	botrec  string
}

func decodeRecord(r record) (xdcc.Entry, error) {
	filename := htmlutil.Text(r.fname)
	if filename == "" {
		return xdcc.Entry{}, &xdcc.DecodeError{Field: "fname", Value: r.fname, Expected: "a non-empty filename"}
	}
	bot := htmlutil.Text(r.bot)
	if bot == "" {
		return xdcc.Entry{}, &xdcc.DecodeError{Field: "bot", Value: r.bot, Expected: "a non-empty bot name"}
	}
	network := htmlutil.Text(r.network)
	if network == "" {
		return xdcc.Entry{}, &xdcc.DecodeError{Field: "network", Value: r.network, Expected: "a non-empty network"}
	}
	channel := htmlutil.Text(r.channel)
	if channel == "" {
		return xdcc.Entry{}, &xdcc.DecodeError{Field: "channel", Value: r.channel, Expected: "a non-empty channel"}
	}

	filesize, err := decodeFilesize(r.fsize)
	if err != nil {
		return xdcc.Entry{}, err
	}
	packnum, err := decodePacknum(r.packnum)
	if err != nil {
		return xdcc.Entry{}, err
	}
	downloads, err := decodeDownloads(r.gets)
	if err != nil {
		return xdcc.Entry{}, err
	}
	speed, err := decodeSpeed(r.botrec)
	if err != nil {
		return xdcc.Entry{}, err
	}

	return xdcc.Entry{
		Filename:  filename,
		Filesize:  filesize,
		Downloads: downloads,
		Packnum:   packnum,
		Channel:   channel,
		Network:   network,
		Bot:       bot,
		BotSpeed:  speed,
	}, nil
}

const fsizeFormat = `"[1.1M]"`

// decodeFilesize converts a human-readable size into a byte count.
// Upstream brackets the value ("[1.2G]"); bare values are accepted too.
// Units step by 1024, matching the service's own arithmetic.
func decodeFilesize(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return 0, &xdcc.DecodeError{Field: "fsize", Value: value, Expected: fsizeFormat}
	}

	factor := float64(1)
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		switch last {
		case 'b', 'B':
			factor = 1
		case 'k', 'K':
			factor = 1 << 10
		case 'm', 'M':
			factor = 1 << 20
		case 'g', 'G':
			factor = 1 << 30
		case 't', 'T':
			factor = 1 << 40
		case 'p', 'P':
			factor = 1 << 50
		default:
			return 0, &xdcc.DecodeError{Field: "fsize", Value: value, Expected: fsizeFormat}
		}
		s = strings.TrimSpace(s[:len(s)-1])
	}

	magnitude, err := strconv.ParseFloat(s, 64)
	if err != nil || magnitude < 0 {
		return 0, &xdcc.DecodeError{Field: "fsize", Value: value, Expected: fsizeFormat, Err: err}
	}
	return int64(magnitude * factor), nil
}

const packnumFormat = `"#42"`

// decodePacknum reads the first run of digits, dropping any decoration
// around it (upstream prefixes a "#").
func decodePacknum(value string) (int64, error) {
	s := strings.TrimSpace(value)
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return 0, &xdcc.DecodeError{Field: "packnum", Value: value, Expected: packnumFormat}
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		return 0, &xdcc.DecodeError{Field: "packnum", Value: value, Expected: packnumFormat, Err: err}
	}
	return n, nil
}

const getsFormat = `"42x"`

// decodeDownloads reads the download counter. Upstream suffixes an "x"
// ("42x"); a bare count is accepted, and an absent field means zero
// (older response variants do not report it).
func decodeDownloads(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, nil
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "x"), "X")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, &xdcc.DecodeError{Field: "gets", Value: value, Expected: getsFormat, Err: err}
	}
	return n, nil
}

const botrecFormat = `"123.4kB/s"`

var speedUnits = map[string]float64{
	"B/s":  1,
	"kB/s": 1 << 10,
	"MB/s": 1 << 20,
	"GB/s": 1 << 30,
	"TB/s": 1 << 40,
	"PB/s": 1 << 50,
}

// decodeSpeed reads the bot's reported upload speed. An absent field
// means unreported, not an error.
func decodeSpeed(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, nil
	}

	split := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}
	factor, ok := speedUnits[strings.TrimSpace(s[split:])]
	if !ok {
		return 0, &xdcc.DecodeError{Field: "botrec", Value: value, Expected: botrecFormat}
	}
	magnitude, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, &xdcc.DecodeError{Field: "botrec", Value: value, Expected: botrecFormat, Err: err}
	}
	return int64(magnitude * factor), nil
}
