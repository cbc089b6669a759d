package parser

import (
	"regexp"
	"strings"

	"github.com/penwyp/go-mc-playtime/internal/core/model"
)

var (
	// "[HH:MM:SS] [Server thread/INFO]: message" (vanilla) or
	// "[HH:MM:SS INFO]: message" (Paper, Spigot). Source tags are optional
	// and may repeat (Forge adds a logger tag).
	linePattern = regexp.MustCompile(
		`^\[(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})[^\]]*\](?:\s*\[[^\]]*\])*:?\s+(?P<message>.*)$`)

	// "Alice[/127.0.0.1:51234] logged in with entity id 42 at (...)"
	loginPattern = regexp.MustCompile(
		`^(?P<player>[^\s\[]+)(?:\[[^\]]*\])?\s+logged in with\b`)

	// "Alice lost connection: Disconnected" or
	// "com.mojang.authlib.GameProfile@1b2c[id=<null>,name=Alice,...] (/1.2.3.4:5) lost connection: ..."
	lostConnectionPattern = regexp.MustCompile(
		`^(?P<player>\S+)\s.*\blost connection\b`)

	profilePattern = regexp.MustCompile(
		`^` + regexp.QuoteMeta(model.ProfilePrefix) + `[0-9a-fA-F]+\[(?P<fields>.*)\]$`)
)

// lineMatch holds the named groups of linePattern.
type lineMatch struct {
	hour, minute, second string
	message              string
}

func matchLine(line string) (lineMatch, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return lineMatch{}, false
	}
	return lineMatch{
		hour:    m[linePattern.SubexpIndex("hour")],
		minute:  m[linePattern.SubexpIndex("minute")],
		second:  m[linePattern.SubexpIndex("second")],
		message: m[linePattern.SubexpIndex("message")],
	}, true
}

func matchPlayer(re *regexp.Regexp, message string) (string, bool) {
	m := re.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[re.SubexpIndex("player")], true
}

// profileName extracts the name= field of a serialized game profile. The
// second return is false when token is not a profile at all.
func profileName(token string) (name string, isProfile bool) {
	if !strings.HasPrefix(token, model.ProfilePrefix) {
		return "", false
	}
	m := profilePattern.FindStringSubmatch(token)
	if m == nil {
		return "", true
	}
	for _, pair := range strings.Split(m[profilePattern.SubexpIndex("fields")], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if ok && key == "name" && value != "" && value != "<null>" {
			return value, true
		}
	}
	return "", true
}

// isChat reports whether message was typed by someone rather than logged by
// the server: chat ("<name> text"), broadcasts ("[Server] text") and emotes
// ("* name text"). Any of them can quote either marker phrase.
func isChat(message string) bool {
	return strings.HasPrefix(message, "<") ||
		strings.HasPrefix(message, "[") ||
		strings.HasPrefix(message, "*")
}
