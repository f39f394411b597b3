package volume

import (
	"fmt"

	"VoxVault/pkg/utils"
)

var logger = utils.GetLogger("voxvault")

// LogLevel of a composed volume log line.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarning
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarning:
		return "WARNING"
	case LogError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// logf routes volume messages to the user sink when one is configured,
// otherwise to the default logger.
func (v *Volume) logf(level LogLevel, format string, args ...interface{}) {
	if v.logFn != nil {
		v.logMu.Lock()
		v.logFn(level, fmt.Sprintf(format, args...))
		v.logMu.Unlock()
		return
	}
	switch level {
	case LogDebug:
		logger.Debugf(format, args...)
	case LogInfo:
		logger.Infof(format, args...)
	case LogWarning:
		logger.Warnf(format, args...)
	default:
		logger.Errorf(format, args...)
	}
}
