package model

// Log line markers
const (
	MarkerLogin          = "logged in with"
	MarkerLostConnection = "lost connection"
)

// Log file naming
const (
	CurrentLogPrefix  = "latest"
	CompressedSuffix  = ".gz"
	FileDateLayout    = "2006-01-02"
	FileDatePrefixLen = len(FileDateLayout)
)

// ProfilePrefix starts a serialized game profile used in place of a player
// name on some disconnect lines.
const ProfilePrefix = "com.mojang.authlib.GameProfile@"
