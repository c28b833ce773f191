/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

// Fields recognised by the JSON formatter as request attributes.
const (
	FieldClientIP    = "client_ip"
	FieldMethod      = "req_method"
	FieldPath        = "req_uri"
	FieldStatusCode  = "status_code"
	FieldLatencyTime = "latency_time"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]*logrus.Logger{}
	baseLevel  = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	logFormat  = normalizeFormat(EnvDefaultString("CONSOLE_LOG_FORMAT", "text"))
	logOutput  io.Writer = os.Stdout
)

// NewLogger returns a logger that prints name on every line. Loggers are
// registered so that later level and format changes reach them.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetLevel(baseLevel)
	l.SetOutput(logOutput)
	l.SetFormatter(newFormatter(name, logFormat))
	registry[name] = l
	return l
}

func newFormatter(name string, format string) logrus.Formatter {
	if format == "json" {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jColorFormatter{LoggerName: name, NameWidth: 10, CallerWidth: 25}
}

func normalizeFormat(format string) string {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		return "json"
	}
	return "text"
}

// Configure applies level, format and output to every registered logger and
// to loggers created later. Empty arguments leave the current setting.
func Configure(level string, format string, out io.Writer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if level != "" {
		baseLevel = ParseLogLevel(level)
	}
	if format != "" {
		logFormat = normalizeFormat(format)
	}
	if out != nil {
		logOutput = out
	}
	for name, l := range registry {
		l.SetLevel(baseLevel)
		l.SetOutput(logOutput)
		l.SetFormatter(newFormatter(name, logFormat))
	}
	logrus.SetLevel(baseLevel)
}

// SetLoggerLevel changes one registered logger; it reports false for an
// unknown name.
func SetLoggerLevel(name string, level string) bool {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(level))
	return true
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// Log4jColorFormatter renders log4j style lines:
//
//	2025-01-02 15:04:05.000   INFO 4242   - [main]      QUERY   query.filter.go:97 : message
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
	CallerWidth     int
}

var (
	levelColors = map[logrus.Level]*color.Color{
		logrus.PanicLevel: color.New(color.FgRed, color.Bold),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.DebugLevel: color.New(color.FgBlue),
		logrus.TraceLevel: color.New(color.FgMagenta),
	}
	pidColor    = color.New(color.FgMagenta)
	nameColor   = color.New(color.FgCyan)
	callerColor = color.New(color.Faint)
)

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	lvl := fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))
	if c, ok := levelColors[entry.Level]; ok {
		lvl = c.Sprint(lvl)
	}

	name := nameColor.Sprint(padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth))
	caller := ""
	if entry.Caller != nil {
		fileLine := callerPath(entry.Caller.File, entry.Caller.Line, f.CallerWidth)
		caller = callerColor.Sprint(" " + padLeft(fileLine, f.CallerWidth))
	}

	msg := entry.Message
	if len(entry.Data) > 0 {
		msg += " " + formatFields(entry.Data)
	}
	line := fmt.Sprintf("%s %s %s - [main] %s%s %s %s\n",
		entry.Time.Format(tsFormat), lvl, pidColor.Sprintf("%-6d", os.Getpid()),
		name, caller, callerColor.Sprint(":"), msg)
	return []byte(line), nil
}

// JSONLogFormatter renders one JSON object per line. Request attributes set
// with the Field* keys are lifted to top-level properties.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

type jsonLogRecord struct {
	Time        string                 `json:"time"`
	Level       string                 `json:"level"`
	Logger      string                 `json:"logger"`
	Caller      string                 `json:"caller,omitempty"`
	Message     string                 `json:"message"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	StatusCode  int                    `json:"status_code,omitempty"`
	LatencyTime string                 `json:"latency_time,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	rec := jsonLogRecord{
		Time:    entry.Time.Format(tsFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = fmt.Sprintf("%s:%d", shortPath(entry.Caller.File), entry.Caller.Line)
	}

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		s, isString := v.(string)
		switch {
		case k == FieldClientIP && isString:
			rec.ClientIP = s
		case k == FieldMethod && isString:
			rec.Method = s
		case k == FieldPath && isString:
			rec.Path = s
		case k == FieldLatencyTime && isString:
			rec.LatencyTime = s
		case k == FieldStatusCode:
			switch n := v.(type) {
			case int:
				rec.StatusCode = n
			case int64:
				rec.StatusCode = int(n)
			default:
				extra[k] = v
			}
		default:
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func formatFields(data logrus.Fields) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}

// callerPath renders dir.dir.file.go:line, abbreviating directories to their
// first letter until the result fits width.
func callerPath(file string, line int, width int) string {
	lineStr := strconv.Itoa(line)
	parts := strings.Split(shortPath(file), "/")
	name := parts[len(parts)-1]
	dirs := parts[:len(parts)-1]
	render := func() string {
		if len(dirs) == 0 {
			return name + ":" + lineStr
		}
		return strings.Join(dirs, ".") + "." + name + ":" + lineStr
	}
	out := render()
	for i := 0; width > 0 && len(out) > width && i < len(dirs); i++ {
		if r := []rune(dirs[i]); len(r) > 1 {
			dirs[i] = string(r[0])
		}
		out = render()
	}
	if width > 0 && len(out) > width {
		out = out[len(out)-width:]
	}
	return out
}

// shortPath keeps the last two path elements.
func shortPath(p string) string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return parts[0]
}

func padLeft(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}

func EnvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
