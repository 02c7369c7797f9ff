package utils

import (
	"log"
	"strings"
)

type LogLevel int

const (
	LogLevelError = LogLevel(1 << iota)
	LogLevelInfo
	LogLevelNotice
	LogLevelDebug
)

const LogLevelAll = LogLevelError | LogLevelInfo | LogLevelNotice | LogLevelDebug

var GlobalLogLevel = LogLevelError | LogLevelInfo

// ParseLogLevel accepts a comma separated list of level names, e.g. "error,info,debug"
func ParseLogLevel(levels string) (l LogLevel) {
	for _, s := range strings.Split(levels, ",") {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "error":
			l |= LogLevelError
		case "info":
			l |= LogLevelInfo
		case "notice":
			l |= LogLevelNotice
		case "debug":
			l |= LogLevelDebug
		case "all":
			l |= LogLevelAll
		}
	}
	return l
}

func Errorf(format string, v ...any) {
	if GlobalLogLevel&LogLevelError == 0 {
		return
	}
	log.Printf(format, v...)
}

func Logf(format string, v ...any) {
	if GlobalLogLevel&LogLevelInfo == 0 {
		return
	}
	log.Printf(format, v...)
}

func Noticef(format string, v ...any) {
	if GlobalLogLevel&LogLevelNotice == 0 {
		return
	}
	log.Printf(format, v...)
}

func Debugf(format string, v ...any) {
	if GlobalLogLevel&LogLevelDebug == 0 {
		return
	}
	log.Printf(format, v...)
}
