package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	Dir      = "logs"
	FileName = "dots.log"
)

// Setup discards log output unless debug is set, in which case it
// appends to logs/dots.log. The terminal backend owns stdout, so logs never
// go there.
func Setup(debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := os.MkdirAll(Dir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return f
}
