package utils

// Voice settings for everything spoken to the caller.
const (
	VoiceLanguage = "it-IT"
	VoiceName     = "alice"
)

// ApologyText is spoken when a request fails in a way the call flow did not handle.
const ApologyText = "Mi dispiace, si è verificato un problema. La preghiamo di richiamare più tardi."
