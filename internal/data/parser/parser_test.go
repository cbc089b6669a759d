package parser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/penwyp/go-mc-playtime/internal/core/model"
	"github.com/penwyp/go-mc-playtime/internal/data/cache"
	"github.com/penwyp/go-mc-playtime/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func newTestParser(skip bool) *Parser {
	return NewParser(Options{Clock: util.FixedClock{At: fixedNow}, SkipMalformed: skip})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseLine(t *testing.T) {
	date := day(2024, 1, 1)
	at := func(h, m, s int) time.Time { return time.Date(2024, 1, 1, h, m, s, 0, time.UTC) }

	tests := []struct {
		name   string
		line   string
		status LineStatus
		event  model.LogEvent
	}{
		{
			name:   "plain login",
			line:   "[12:00:00] Alice logged in with entity id 1",
			status: LineEvent,
			event:  model.LogEvent{Player: "Alice", Time: at(12, 0, 0), Kind: model.KindConnect},
		},
		{
			name:   "vanilla login with address",
			line:   "[08:15:30] [Server thread/INFO]: Steve[/127.0.0.1:51234] logged in with entity id 42 at (10.5, 64.0, -3.2)",
			status: LineEvent,
			event:  model.LogEvent{Player: "Steve", Time: at(8, 15, 30), Kind: model.KindConnect},
		},
		{
			name:   "forge login with two tags",
			line:   "[08:15:30] [Server thread/INFO] [minecraft/PlayerList]: Steve[/10.0.0.2:4000] logged in with entity id 7 at (0, 0, 0)",
			status: LineEvent,
			event:  model.LogEvent{Player: "Steve", Time: at(8, 15, 30), Kind: model.KindConnect},
		},
		{
			name:   "plain disconnect",
			line:   "[13:30:05] Alice lost connection: disconnected",
			status: LineEvent,
			event:  model.LogEvent{Player: "Alice", Time: at(13, 30, 5), Kind: model.KindDisconnect},
		},
		{
			name:   "vanilla disconnect",
			line:   "[23:59:59] [Server thread/INFO]: Steve lost connection: Disconnected",
			status: LineEvent,
			event:  model.LogEvent{Player: "Steve", Time: at(23, 59, 59), Kind: model.KindDisconnect},
		},
		{
			name:   "game profile disconnect",
			line:   "[09:00:01] [Server thread/INFO]: com.mojang.authlib.GameProfile@6d4a1b2c[id=<null>,name=Notch,properties={},legacy=false] (/127.0.0.1:5555) lost connection: Timed out",
			status: LineEvent,
			event:  model.LogEvent{Player: "Notch", Time: at(9, 0, 1), Kind: model.KindDisconnect},
		},
		{
			name:   "unrelated line",
			line:   "[12:00:00] [Server thread/INFO]: Done (3.2s)! For help, type \"help\"",
			status: LineSkip,
		},
		{
			name:   "line without timestamp and marker",
			line:   "java.lang.NullPointerException",
			status: LineSkip,
		},
		{
			name:   "chat quoting login marker",
			line:   "[12:00:00] [Server thread/INFO]: <Bob> I logged in with my alt",
			status: LineSkip,
		},
		{
			name:   "chat quoting disconnect marker",
			line:   "[12:00:00] [Async Chat Thread - #0/INFO]: <Bob> lost connection again lol",
			status: LineSkip,
		},
		{
			name:   "paper login",
			line:   "[12:00:00 INFO]: Alice[/127.0.0.1:5555] logged in with entity id 1 at ([world]0.5, 64.0, 0.5)",
			status: LineEvent,
			event:  model.LogEvent{Player: "Alice", Time: at(12, 0, 0), Kind: model.KindConnect},
		},
		{
			name:   "paper disconnect",
			line:   "[12:45:10 INFO]: Alice lost connection: Disconnected",
			status: LineEvent,
			event:  model.LogEvent{Player: "Alice", Time: at(12, 45, 10), Kind: model.KindDisconnect},
		},
		{
			name:   "paper warn level disconnect",
			line:   "[07:05:09 WARN]: com.mojang.authlib.GameProfile@1a2b[id=<null>,name=Bob,properties={},legacy=false] (/10.0.0.3:4000) lost connection: Timed out",
			status: LineEvent,
			event:  model.LogEvent{Player: "Bob", Time: at(7, 5, 9), Kind: model.KindDisconnect},
		},
		{
			name:   "say broadcast quoting login marker",
			line:   "[12:00:00] [Server thread/INFO]: [Server] Bob logged in with his alt",
			status: LineSkip,
		},
		{
			name:   "paper broadcast quoting disconnect marker",
			line:   "[12:00:00 INFO]: [Rcon] Carol lost connection twice today",
			status: LineSkip,
		},
		{
			name:   "emote quoting login marker",
			line:   "[12:00:00] [Server thread/INFO]: * Bob logged in with style",
			status: LineSkip,
		},
		{
			name:   "missing time of day",
			line:   "Alice logged in with entity id 1",
			status: LineMalformed,
		},
		{
			name:   "hour out of range",
			line:   "[24:00:00] Alice logged in with entity id 1",
			status: LineMalformed,
		},
		{
			name:   "non numeric minute",
			line:   "[12:xx:00] Alice lost connection: bye",
			status: LineMalformed,
		},
		{
			name:   "login without player",
			line:   "[12:00:00] [Server thread/INFO]: logged in with entity id 1",
			status: LineMalformed,
		},
		{
			name:   "profile without name",
			line:   "[12:00:00] com.mojang.authlib.GameProfile@1f[id=<null>,name=<null>,properties={}] lost connection: x",
			status: LineMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLine(tt.line, date)
			require.Equal(t, tt.status, result.Status, "reason: %s", result.Reason)
			if tt.status == LineEvent {
				assert.Equal(t, tt.event, result.Event)
			}
			if tt.status == LineMalformed {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestProfileName(t *testing.T) {
	name, isProfile := profileName("com.mojang.authlib.GameProfile@abc[id=1234,name=Jeb_,properties={}]")
	assert.True(t, isProfile)
	assert.Equal(t, "Jeb_", name)

	name, isProfile = profileName("Jeb_")
	assert.False(t, isProfile)
	assert.Empty(t, name)

	name, isProfile = profileName("com.mojang.authlib.GameProfile@abc")
	assert.True(t, isProfile)
	assert.Empty(t, name)
}

func TestParseTextRotatedLog(t *testing.T) {
	text := "[12:00:00] Alice logged in with entity id 1\n" +
		"\n" +
		"[12:10:00] [Server thread/INFO]: Preparing spawn area\r\n" +
		"[13:30:05] Alice lost connection: disconnected\n"

	result, err := newTestParser(false).ParseText("2024-01-01-1.log", text)
	require.NoError(t, err)

	require.Len(t, result.Events, 2)
	assert.Equal(t, model.LogEvent{Player: "Alice", Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Kind: model.KindConnect}, result.Events[0])
	assert.Equal(t, model.LogEvent{Player: "Alice", Time: time.Date(2024, 1, 1, 13, 30, 5, 0, time.UTC), Kind: model.KindDisconnect}, result.Events[1])
	assert.Zero(t, result.Skipped)
}

func TestParseTextPaperLog(t *testing.T) {
	text := "[11:59:58 INFO]: UUID of player Alice is 069a79f4-44e9-4726-a5be-fca90e38aaf5\n" +
		"[12:00:00 INFO]: Alice[/127.0.0.1:5555] logged in with entity id 1 at ([world]0.5, 64.0, 0.5)\n" +
		"[12:05:00 INFO]: [Server] Bob logged in with his alt\n" +
		"[12:30:00 INFO]: Alice lost connection: Disconnected\n"

	result, err := newTestParser(false).ParseText("2024-01-01-1.log", text)
	require.NoError(t, err)

	require.Len(t, result.Events, 2)
	assert.Equal(t, model.KindConnect, result.Events[0].Kind)
	assert.Equal(t, model.KindDisconnect, result.Events[1].Kind)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC), result.Events[1].Time)
}

func TestParseTextCurrentLogUsesToday(t *testing.T) {
	result, err := newTestParser(false).ParseText("latest.log", "[07:45:00] Bob logged in with entity id 3\n")
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 7, 45, 0, 0, time.UTC), result.Events[0].Time)
}

func TestParseTextUsesClockLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	p := NewParser(Options{Clock: util.FixedClock{At: fixedNow.In(berlin)}})

	result, err := p.ParseText("2024-07-01-1.log", "[10:00:00] Bob logged in with entity id 3\n")
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, time.Date(2024, 7, 1, 10, 0, 0, 0, berlin), result.Events[0].Time)
}

func TestParseTextMalformedAborts(t *testing.T) {
	text := "[12:00:00] Alice logged in with entity id 1\n" +
		"[25:00:00] Bob logged in with entity id 2\n"

	_, err := newTestParser(false).ParseText("2024-01-01-1.log", text)

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedLog))
	var malformed *model.MalformedLogError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "2024-01-01-1.log", malformed.File)
	assert.Equal(t, 2, malformed.Line)
}

func TestParseTextMalformedSkipped(t *testing.T) {
	text := "[12:00:00] Alice logged in with entity id 1\n" +
		"[25:00:00] Bob logged in with entity id 2\n" +
		"[13:00:00] Alice lost connection: bye\n"

	result, err := newTestParser(true).ParseText("2024-01-01-1.log", text)

	require.NoError(t, err)
	assert.Len(t, result.Events, 2)
	assert.Equal(t, 1, result.Skipped)
}

func TestParseTextInvalidFileDate(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"impossible month", "2024-13-01-1.log"},
		{"short name", "2024.log"},
		{"not a date", "2024_backup_of_server.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestParser(false).ParseText(tt.file, "[12:00:00] Alice logged in with entity id 1\n")
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrMalformedLog))
		})
	}
}

func TestParseTextInvalidFileDateWithoutEvents(t *testing.T) {
	result, err := newTestParser(false).ParseText("2024.log", "[12:00:00] Server started\n")

	require.NoError(t, err)
	assert.Empty(t, result.Events)
}

func TestParseFileGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2024-01-01-1.log.gz")

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("[12:00:00] Alice logged in with entity id 1\n[13:30:05] Alice lost connection: disconnected\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	result, err := newTestParser(false).ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, result.File)
	assert.Len(t, result.Events, 2)
}

func TestParseFileReadError(t *testing.T) {
	_, err := newTestParser(false).ParseFile(filepath.Join(t.TempDir(), "2024-01-01-1.log"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRead))
}

func TestParseFileUsesCacheForRotatedLogsOnly(t *testing.T) {
	logDir := t.TempDir()
	fileCache, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	rotated := filepath.Join(logDir, "2024-01-01-1.log")
	current := filepath.Join(logDir, "latest.log")
	line := "[12:00:00] Alice logged in with entity id 1\n"
	require.NoError(t, os.WriteFile(rotated, []byte(line), 0644))
	require.NoError(t, os.WriteFile(current, []byte(line), 0644))

	p := NewParser(Options{Clock: util.FixedClock{At: fixedNow}, Cache: fileCache})

	_, err = p.ParseFile(rotated)
	require.NoError(t, err)
	_, err = p.ParseFile(current)
	require.NoError(t, err)

	assert.True(t, fileCache.Get(rotated, zoneKey(time.UTC)).Found)
	assert.False(t, fileCache.Get(current, zoneKey(time.UTC)).Found)

	again, err := p.ParseFile(rotated)
	require.NoError(t, err)
	require.Len(t, again.Events, 1)
	assert.Equal(t, "Alice", again.Events[0].Player)
}

func TestParseFileDoesNotCacheSkippedLines(t *testing.T) {
	logDir := t.TempDir()
	fileCache, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	rotated := filepath.Join(logDir, "2024-01-01-1.log")
	require.NoError(t, os.WriteFile(rotated, []byte("[99:00:00] Alice logged in with entity id 1\n"), 0644))

	p := NewParser(Options{Clock: util.FixedClock{At: fixedNow}, Cache: fileCache, SkipMalformed: true})
	result, err := p.ParseFile(rotated)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)

	assert.False(t, fileCache.Get(rotated, zoneKey(time.UTC)).Found)
}

func TestParseFileMarksCacheHits(t *testing.T) {
	logDir := t.TempDir()
	fileCache, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	rotated := filepath.Join(logDir, "2024-01-01-1.log")
	require.NoError(t, os.WriteFile(rotated, []byte("[12:00:00] Alice logged in with entity id 1\n"), 0644))

	p := NewParser(Options{Clock: util.FixedClock{At: fixedNow}, Cache: fileCache})

	first, err := p.ParseFile(rotated)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.ParseFile(rotated)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Events, second.Events)
}

func TestZoneKey(t *testing.T) {
	assert.Equal(t, "UTC UTC+0000 UTC+0000", zoneKey(time.UTC))

	// Same name, different rules: a host moved to another zone keeps "Local".
	before := time.FixedZone("Local", 3600)
	after := time.FixedZone("Local", -5*3600)
	assert.NotEqual(t, zoneKey(before), zoneKey(after))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin CET+0100 CEST+0200", zoneKey(berlin))
}

func TestParseFileCacheMissOnZoneChange(t *testing.T) {
	logDir := t.TempDir()
	fileCache, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	rotated := filepath.Join(logDir, "2024-01-01-1.log")
	require.NoError(t, os.WriteFile(rotated, []byte("[12:00:00] Alice logged in with entity id 1\n"), 0644))

	before := time.FixedZone("Local", 3600)
	first := NewParser(Options{Clock: util.FixedClock{At: fixedNow.In(before)}, Cache: fileCache})
	_, err = first.ParseFile(rotated)
	require.NoError(t, err)

	after := time.FixedZone("Local", -5*3600)
	second := NewParser(Options{Clock: util.FixedClock{At: fixedNow.In(after)}, Cache: fileCache})
	result, err := second.ParseFile(rotated)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	require.Len(t, result.Events, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, after), result.Events[0].Time)
}
