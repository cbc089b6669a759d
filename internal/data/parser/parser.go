package parser

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/data/cache"
	"github.com/penwyp/go-mc-playtime/internal/data/decoder"
	"github.com/penwyp/go-mc-playtime/internal/data/scanner"
	"github.com/penwyp/go-mc-playtime/internal/util"
)

// LineStatus classifies a single log line.
type LineStatus int

const (
	// LineSkip is any line that is neither a login nor a disconnect.
	LineSkip LineStatus = iota
	LineEvent
	LineMalformed
)

// LineResult is the outcome of parsing one line.
type LineResult struct {
	Status LineStatus
	Event  model.LogEvent
	Reason string
}

// Options configures a Parser.
type Options struct {
	Clock util.Clock
	// SkipMalformed turns malformed event lines into warnings instead of
	// failing the whole file.
	SkipMalformed bool
	Cache         cache.Cache
}

// Parser extracts connect and disconnect events from server log files.
type Parser struct {
	clock         util.Clock
	skipMalformed bool
	cache         cache.Cache
}

// NewParser creates a new Parser instance. A nil Clock uses the global time
// provider; a nil Cache disables caching.
func NewParser(opts Options) *Parser {
	clock := opts.Clock
	if clock == nil {
		clock = util.GetTimeProvider()
	}
	return &Parser{
		clock:         clock,
		skipMalformed: opts.SkipMalformed,
		cache:         opts.Cache,
	}
}

// ParseFile decodes and parses the log at path. Rotated logs are served from
// the cache when it holds a valid entry.
func (p *Parser) ParseFile(path string) (*model.FileEvents, error) {
	current := scanner.IsCurrentLog(path)
	cacheable := p.cache != nil && !current
	location := zoneKey(p.clock.Location())

	if cacheable {
		result := p.cache.Get(path, location)
		if result.Found {
			util.LogDebugf("Cache hit: %s (%d events)", path, len(result.Data.Events))
			hit := *result.Data
			hit.Cached = true
			return &hit, nil
		}
		util.LogDebugf("Cache miss: %s (%s)", path, result.MissReason)
	}

	start := time.Now()
	text, err := decoder.Decode(path)
	if err != nil {
		return nil, err
	}

	events, err := p.ParseText(filepath.Base(path), text)
	if err != nil {
		return nil, err
	}
	events.File = path
	util.LogDebugf("Parsed %s: %d events, %d skipped, duration %v",
		path, len(events.Events), events.Skipped, time.Since(start))

	// Entries are only written for clean parses so a later run with the
	// abort policy still sees every malformed line.
	if cacheable && events.Skipped == 0 {
		if err := p.cache.Set(path, location, events); err != nil {
			util.LogWarnf("Failed to save cache for %s: %v", path, err)
		}
	}
	return events, nil
}

// zoneKey identifies loc by name and by its offsets in winter and summer.
// "Local" alone would keep serving entries after the host zone changes.
func zoneKey(loc *time.Location) string {
	winter := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).In(loc)
	summer := time.Date(2000, time.July, 1, 0, 0, 0, 0, time.UTC).In(loc)
	return loc.String() + " " + winter.Format("MST-0700") + " " + summer.Format("MST-0700")
}

// ParseText extracts events from the full text of the log file called name.
// Events keep line order.
func (p *Parser) ParseText(name, text string) (*model.FileEvents, error) {
	date, dateErr := p.fileDate(name)
	result := &model.FileEvents{File: name}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		var lr LineResult
		if dateErr != nil {
			// The date only matters once a line needs it.
			lr = ParseLine(line, time.Time{})
			if lr.Status == LineEvent {
				lr = LineResult{Status: LineMalformed, Reason: dateErr.Error()}
			}
		} else {
			lr = ParseLine(line, date)
		}

		switch lr.Status {
		case LineEvent:
			result.Events = append(result.Events, lr.Event)
		case LineMalformed:
			merr := &model.MalformedLogError{File: name, Line: i + 1, Reason: lr.Reason}
			if !p.skipMalformed {
				return nil, merr
			}
			util.LogWarn("Skipping malformed line",
				util.F("file", name), util.F("line", i+1), util.F("reason", lr.Reason))
			result.Skipped++
		}
	}

	return result, nil
}

// fileDate resolves the calendar day a log file covers: today for the current
// log, otherwise the YYYY-MM-DD name prefix.
func (p *Parser) fileDate(name string) (time.Time, error) {
	if scanner.IsCurrentLog(name) {
		return util.Today(p.clock), nil
	}
	if len(name) < model.FileDatePrefixLen {
		return time.Time{}, fmt.Errorf("file name %q has no date prefix", name)
	}
	date, err := time.ParseInLocation(model.FileDateLayout, name[:model.FileDatePrefixLen], p.clock.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid file date %q: %v", name[:model.FileDatePrefixLen], err)
	}
	return date, nil
}

// ParseLine classifies line and, for login and disconnect lines, builds the
// event on the calendar day date.
func ParseLine(line string, date time.Time) LineResult {
	var kind model.EventKind
	switch {
	case strings.Contains(line, model.MarkerLogin):
		kind = model.KindConnect
	case strings.Contains(line, model.MarkerLostConnection):
		kind = model.KindDisconnect
	default:
		return LineResult{Status: LineSkip}
	}

	m, ok := matchLine(line)
	if !ok {
		return malformed("missing [HH:MM:SS] time of day")
	}
	if isChat(m.message) {
		return LineResult{Status: LineSkip}
	}

	at, err := atTimeOfDay(date, m.hour, m.minute, m.second)
	if err != nil {
		return malformed(err.Error())
	}

	var player string
	if kind == model.KindConnect {
		player, ok = matchPlayer(loginPattern, m.message)
		if !ok {
			return malformed("login line without player name")
		}
	} else {
		player, ok = matchPlayer(lostConnectionPattern, m.message)
		if !ok {
			return malformed("disconnect line without player name")
		}
		if name, isProfile := profileName(player); isProfile {
			if name == "" {
				return malformed(fmt.Sprintf("game profile without name: %s", player))
			}
			player = name
		}
	}

	return LineResult{
		Status: LineEvent,
		Event:  model.LogEvent{Player: player, Time: at, Kind: kind},
	}
}

func malformed(reason string) LineResult {
	return LineResult{Status: LineMalformed, Reason: reason}
}

func atTimeOfDay(date time.Time, hh, mm, ss string) (time.Time, error) {
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	second, _ := strconv.Atoi(ss)
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day %s:%s:%s", hh, mm, ss)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, date.Location()), nil
}
