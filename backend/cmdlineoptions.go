package backend

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/dweymouth/mediabridge/backend/bus"
)

var (
	FlagUpdate   = flag.Bool("update", false, "send a now-playing update to the running daemon and exit")
	FlagTitle    = flag.String("title", "", "title of the playing item (with -update)")
	FlagSubtitle = flag.String("subtitle", "", "subtitle, usually the artist (with -update)")
	FlagAction   = flag.String("action", "", `transport state: "play", "pause" or anything else for buffering (with -update)`)
	FlagDuration = flag.Int64("duration", 0, "duration of the item in milliseconds (with -update)")
	FlagPosition = flag.Int64("position", 0, "current position in milliseconds (with -update)")
	FlagIconFile = flag.String("icon-file", "", "image file to show as artwork (with -update)")
	FlagListen   = flag.Bool("listen", false, "print control events from the running daemon as JSON lines")
	FlagQuit     = flag.Bool("quit", false, "ask the running daemon to exit")
	FlagVersion  = flag.Bool("version", false, "print app version and exit")
	FlagHelp     = flag.Bool("help", false, "print command line options and exit")
)

func HaveCommandLineOptions() bool {
	visitedAny := false
	flag.Visit(func(*flag.Flag) {
		visitedAny = true
	})
	return visitedAny
}

// UpdateFromFlags builds the update message described by the -update flags.
func UpdateFromFlags() (bus.UpdateMessage, error) {
	u := bus.UpdateMessage{
		Title:           *FlagTitle,
		Subtitle:        *FlagSubtitle,
		Action:          *FlagAction,
		Duration:        *FlagDuration,
		CurrentPosition: *FlagPosition,
	}
	if *FlagIconFile != "" {
		icon, err := encodeIconFile(*FlagIconFile)
		if err != nil {
			return u, err
		}
		u.Icon = icon
	}
	return u, nil
}

func encodeIconFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read icon file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
