package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type Logger interface {
	Log(info *MetricsInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *MetricsInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultQueueSize = 2000
const defaultLogWriters = 2
const defaultMaxLogFileSize = 1024 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger writes metrics records as JSON lines into per writer
// files under LogDir, rotating them by size.
type FileLogger struct {
	MetricsQueue   chan *MetricsInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		MetricsQueue:   make(chan *MetricsInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}

	for i := 0; i < defaultLogWriters; i++ {
		go logger.startLogWriter(i)
	}

	return logger
}

// Log enqueues one record. A full queue drops the record rather
// than stalling the request path on a slow disk.
func (l *FileLogger) Log(info *MetricsInfo) {
	select {
	case l.MetricsQueue <- info:
	default:
		log.Print("FileLogger: metrics queue full, dropping entry")
	}
}

func (l *FileLogger) logFileName(idx int) string {
	return path.Join(l.LogDir, fmt.Sprintf("metrics%d", idx))
}

func (l *FileLogger) startLogWriter(idx int) {
	f, err := l.openLogFile(idx)
	if err != nil {
		log.Printf("FileLogger%d: log open error: %v", idx, err)
	}

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger%d: info.ToJSON() error: %v", idx, err)
			continue
		}

		f, err = l.tryRotateLogFile(f, idx)
		if err != nil {
			continue
		}
		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger%d: write error: %v", idx, err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) openLogFile(idx int) (*os.File, error) {
	return os.OpenFile(l.logFileName(idx), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// rotationTarget picks the destination for the next rotation: the
// first free metrics<idx>.<n> slot, or the oldest rotated file of
// this writer once all slots are taken.
func (l *FileLogger) rotationTarget(idx int) (string, error) {
	for i := 0; i < l.MaxLogFiles; i++ {
		filePath := fmt.Sprintf("%s.%d", l.logFileName(idx), i)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			return filePath, nil
		}
	}

	files, err := ioutil.ReadDir(l.LogDir)
	if err != nil {
		return "", err
	}

	var oldestFile os.FileInfo
	oldestTime := time.Now()
	for _, file := range files {
		if !file.Mode().IsRegular() {
			continue
		}
		fileName := filepath.Base(file.Name())
		fn := strings.TrimSuffix(fileName, path.Ext(fileName))
		if fn != fmt.Sprintf("metrics%d", idx) {
			continue
		}
		if file.ModTime().Before(oldestTime) {
			oldestFile = file
			oldestTime = file.ModTime()
		}
	}

	var target string
	if oldestFile != nil {
		target = path.Join(l.LogDir, oldestFile.Name())
	} else {
		target = fmt.Sprintf("%s.%d", l.logFileName(idx), 0)
	}
	if l.Verbose {
		log.Printf("FileLogger%d: maximum number of log files reached, overwriting %s", idx, target)
	}
	if err := os.Remove(target); err != nil {
		return "", err
	}
	return target, nil
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File, idx int) (*os.File, error) {
	info, err := currFile.Stat()
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return currFile, nil
	}
	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	target, err := l.rotationTarget(idx)
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return currFile, nil
	}

	currFile.Close()
	if err := os.Rename(l.logFileName(idx), target); err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return currFile, nil
	}
	if l.Verbose {
		log.Printf("FileLogger%d: log file rotated: %v", idx, target)
	}

	f, err := l.openLogFile(idx)
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
	}
	return f, err
}
