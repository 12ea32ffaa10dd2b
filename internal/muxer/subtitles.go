package muxer

import (
	"fmt"
	"strings"
	"time"
)

// BuildSRT renders one SRT cue per scene subtitle, each spanning that scene's
// fixed clip window. Blank subtitles still consume their time slot so later
// cues stay aligned with their scenes.
func BuildSRT(subtitles []string, clipSeconds int) string {
	var b strings.Builder
	cue := 0
	for i, text := range subtitles {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		cue++
		start := time.Duration(i*clipSeconds) * time.Second
		end := time.Duration((i+1)*clipSeconds) * time.Second
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", cue, srtTimestamp(start), srtTimestamp(end), text)
	}
	return b.String()
}

func srtTimestamp(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
