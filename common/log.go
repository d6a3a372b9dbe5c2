package common

import (
	"io"
	"os"
	"path/filepath"

	"github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

func makeDefaultLogger(absFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   absFilePath,
		MaxSize:    100,
		MaxBackups: 14,
		MaxAge:     14,
		Compress:   true,
		LocalTime:  true,
	}
}

func parseLevel(lvl string) log15.Lvl {
	logLevel, err := log15.LvlFromString(lvl)
	if err != nil {
		return log15.LvlInfo
	}
	return logLevel
}

// LogHandler writes logfmt records at lvl or above to a rotating file. The returned
// closer releases the file.
func LogHandler(absFilename, lvl string) (log15.Handler, io.Closer) {
	out := makeDefaultLogger(absFilename)
	return log15.LvlFilterHandler(parseLevel(lvl), log15.StreamHandler(out, log15.LogfmtFormat())), out
}

// TerminalHandler writes to stderr, colored when stderr is a terminal.
func TerminalHandler(lvl string) log15.Handler {
	var format log15.Format
	if isatty.IsTerminal(os.Stderr.Fd()) {
		format = log15.TerminalFormat()
	} else {
		format = log15.LogfmtFormat()
	}
	out := colorable.NewColorableStderr()
	return log15.LvlFilterHandler(parseLevel(lvl), log15.StreamHandler(out, format))
}

// SetupLogging routes the root logger to logFile, or to the terminal when logFile is
// empty. Relative paths resolve against dataDir.
func SetupLogging(dataDir, logFile, lvl string) (io.Closer, error) {
	if logFile == "" {
		log15.Root().SetHandler(TerminalHandler(lvl))
		return nopCloser{}, nil
	}
	if !filepath.IsAbs(logFile) {
		logFile = filepath.Join(dataDir, logFile)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return nil, err
	}
	h, closer := LogHandler(logFile, lvl)
	log15.Root().SetHandler(h)
	return fileLog{closer}, nil
}

// fileLog detaches the root logger before closing the file.
type fileLog struct {
	io.Closer
}

func (f fileLog) Close() error {
	log15.Root().SetHandler(log15.DiscardHandler())
	return f.Closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
