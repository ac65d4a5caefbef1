package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Config 日志配置，EnableConsole 写标准错误，标准输出留给 playbook 输出
type Config struct {
	Level         LogLevel
	EnableConsole bool
	EnableFile    bool
	LogDir        string
	LogFile       string // 为空时使用 infrabridge-YYYY-MM-DD.log
}

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

type loggerImpl struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
	file   *os.File
}

var (
	defaultLogger Logger
	defaultMu     sync.Mutex
)

// InitLogger 根据配置初始化默认日志实例
func InitLogger(config *Config) (Logger, error) {
	var writers []io.Writer

	if config.EnableConsole {
		writers = append(writers, os.Stderr)
	}

	var file *os.File
	if config.EnableFile {
		logDir := config.LogDir
		if logDir == "" {
			logDir = "logs"
		}
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}

		name := config.LogFile
		if name == "" {
			name = fmt.Sprintf("infrabridge-%s.log", time.Now().Format("2006-01-02"))
		}

		f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	l := NewLogger(config.Level, io.MultiWriter(writers...))
	l.(*loggerImpl).file = file

	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return l, nil
}

// NewLogger 创建写入 w 的日志实例，不影响默认实例
func NewLogger(level LogLevel, w io.Writer) Logger {
	return &loggerImpl{
		level:  level,
		logger: log.New(w, "", 0),
	}
}

// SetLogger 替换默认日志实例
func SetLogger(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// GetLogger 获取默认日志实例，未初始化时只输出到控制台
func GetLogger() Logger {
	defaultMu.Lock()
	l := defaultLogger
	defaultMu.Unlock()
	if l != nil {
		return l
	}

	l, _ = InitLogger(&Config{
		Level:         INFO,
		EnableConsole: true,
	})
	return l
}

// Close 关闭默认日志实例持有的日志文件
func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	impl, ok := defaultLogger.(*loggerImpl)
	if !ok || impl.file == nil {
		return nil
	}
	err := impl.file.Close()
	impl.file = nil
	return err
}

func (l *loggerImpl) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *loggerImpl) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *loggerImpl) log(level LogLevel, format string, args ...interface{}) {
	if level < l.GetLevel() {
		return
	}

	// 跳过 log 和 Debug/Info/... 两层调用
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	} else {
		file = filepath.Base(file)
	}

	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s:%d] %s", timestamp, levelNames[level], file, line, message)
}

// Debug 调试日志
func (l *loggerImpl) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 信息日志
func (l *loggerImpl) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 警告日志
func (l *loggerImpl) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 错误日志
func (l *loggerImpl) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// ParseLevel 解析日志级别字符串，无法识别时返回 INFO
func ParseLevel(levelStr string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	return levelNames[l]
}
