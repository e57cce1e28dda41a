package util

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// InitLogger 初始化控制台日志，verbose 时输出每次查询失败的原因
func InitLogger(verbose bool) {
	Logger.SetOutput(os.Stdout)
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
	Logger.SetFormatter(&ConsoleFormatter{})
}

// ConsoleFormatter 输出形如 "[15:04:05] - [INFO] - msg" 的日志行
type ConsoleFormatter struct {
	DisableColors bool
}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	color := ansiCyan
	switch entry.Level {
	case logrus.WarnLevel:
		color = ansiYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		color = ansiRed
	}

	msg := entry.Message
	if len(entry.Data) > 0 {
		var fields []string
		for k, v := range entry.Data {
			fields = append(fields, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(fields)
		msg += " " + strings.Join(fields, " ")
	}

	var b bytes.Buffer
	ts := entry.Time.Format("15:04:05")
	if f.DisableColors {
		fmt.Fprintf(&b, "[%s] - [%s] - %s\n", ts, level, msg)
	} else {
		fmt.Fprintf(&b, "[%s%s%s] - %s[%s] - %s%s\n", ansiCyan, ts, ansiReset, color, level, msg, ansiReset)
	}
	return b.Bytes(), nil
}
