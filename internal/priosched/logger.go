// Component logging, adapted from the teacher's vmi_internal/logger.go:
// a shared root *logrus.Logger, JSON-or-text formatter selectable via
// config, caller info stripped to a path relative to this module.

package priosched

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	loggerConfigUseJSONDefault  = false
	loggerConfigLevelDefault    = "info"
	loggerConfigDisableSrcFile  = false
	loggerComponentFieldName    = "comp"
	loggerDefaultLevel          = logrus.InfoLevel
	loggerTimestampFormat       = time.RFC3339
	loggerFileMaxSizeMBDefault  = 10
	loggerFileMaxBackupsDefault = 1
)

// CollectableLogger wraps *logrus.Logger with the small interface
// internal/testutils.TestLogCollect expects (GetOutput/GetLevel/SetLevel),
// carried over from the teacher's vmi_internal.CollectableLogger.
type CollectableLogger struct {
	logrus.Logger
}

func (log *CollectableLogger) GetOutput() io.Writer { return log.Out }
func (log *CollectableLogger) GetLevel() any        { return log.Logger.GetLevel() }

func (log *CollectableLogger) SetLevel(level any) {
	if lvl, ok := level.(logrus.Level); ok {
		log.Logger.SetLevel(lvl)
	}
}

// LoggerConfig is the YAML-loadable logging configuration, a trimmed form
// of the teacher's LoggerConfig (it drops nothing domain-specific since
// logging is an ambient concern identical across both domains).
type LoggerConfig struct {
	UseJSON             bool   `yaml:"use_json"`
	Level               string `yaml:"level"`
	DisableSrcFile      bool   `yaml:"disable_src_file"`
	LogFile             string `yaml:"log_file"`
	LogFileMaxSizeMB    int    `yaml:"log_file_max_size_mb"`
	LogFileMaxBackupNum int    `yaml:"log_file_max_backup_num"`
}

func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		UseJSON:             loggerConfigUseJSONDefault,
		Level:               loggerConfigLevelDefault,
		DisableSrcFile:      loggerConfigDisableSrcFile,
		LogFileMaxSizeMB:    loggerFileMaxSizeMBDefault,
		LogFileMaxBackupNum: loggerFileMaxBackupsDefault,
	}
}

// modulePathCache strips this module's own source-root prefix from logged
// file paths, so caller info reads "internal/priosched/scheduler.go:42"
// rather than an absolute build-machine path.
type modulePathCache struct {
	mu     sync.Mutex
	prefix string
}

func (p *modulePathCache) stripPrefix(filePath string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prefix != "" && strings.HasPrefix(filePath, p.prefix) {
		return filePath[len(p.prefix):]
	}
	comps := strings.Split(filePath, "/")
	keep := 2
	if keep < len(comps) {
		return path.Join(comps[len(comps)-keep:]...)
	}
	return filePath
}

var pathCache = &modulePathCache{}

func init() {
	_, file, _, ok := runtime.Caller(0)
	if ok {
		// this file lives at <module-root>/internal/priosched/logger.go
		prefix := path.Dir(path.Dir(path.Dir(file)))
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		pathCache.prefix = prefix
	}
}

var callerPrettyfier = func(f *runtime.Frame) (function string, file string) {
	return "", fmt.Sprintf("%s:%d", pathCache.stripPrefix(f.File), f.Line)
}

var textFormatter = &logrus.TextFormatter{
	DisableColors:    true,
	FullTimestamp:    true,
	TimestampFormat:  loggerTimestampFormat,
	CallerPrettyfier: callerPrettyfier,
	SortingFunc:      sortFieldKeys,
}

var jsonFormatter = &logrus.JSONFormatter{
	TimestampFormat:  loggerTimestampFormat,
	CallerPrettyfier: callerPrettyfier,
}

var fieldKeySortOrder = map[string]int{
	logrus.FieldKeyTime:      -4,
	logrus.FieldKeyLevel:     -3,
	loggerComponentFieldName: -2,
	logrus.FieldKeyFile:      -1,
	logrus.FieldKeyMsg:       1,
}

func sortFieldKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := fieldKeySortOrder[keys[i]], fieldKeySortOrder[keys[j]]
		if oi != 0 || oj != 0 {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
}

// RootLogger is the shared logger all component loggers derive from.
var RootLogger = &CollectableLogger{
	Logger: logrus.Logger{
		Out:          os.Stderr,
		Formatter:    textFormatter,
		Level:        loggerDefaultLevel,
		ReportCaller: true,
	},
}

// SetLogger applies cfg (or the defaults, if cfg is nil) to RootLogger.
func SetLogger(cfg *LoggerConfig) error {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	if cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("log_config.level: %w", err)
		}
		RootLogger.SetLevel(level)
	}

	if cfg.UseJSON {
		RootLogger.SetFormatter(jsonFormatter)
	} else {
		RootLogger.SetFormatter(textFormatter)
	}
	RootLogger.SetReportCaller(!cfg.DisableSrcFile)

	switch cfg.LogFile {
	case "", "stderr":
		RootLogger.SetOutput(os.Stderr)
	case "stdout":
		RootLogger.SetOutput(os.Stdout)
	default:
		logDir := path.Dir(cfg.LogFile)
		if _, err := os.Stat(logDir); err != nil {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				return fmt.Errorf("log_config.log_file: %w", err)
			}
		}
		RootLogger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogFileMaxSizeMB,
			MaxBackups: cfg.LogFileMaxBackupNum,
		})
	}

	return nil
}

// NewCompLogger returns a logger entry tagged with comp=name.
func NewCompLogger(name string) *logrus.Entry {
	return RootLogger.WithField(loggerComponentFieldName, name)
}
