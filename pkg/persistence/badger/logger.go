package badger

import (
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// nonceStoreLogger sends badger's printf-style output to a "badger" child of
// the store's logger. Badger reports compactions and value log rotation at
// info level; those are debug noise for a nonce store.
type nonceStoreLogger struct {
	sugar *zap.SugaredLogger
}

var _ badgerdb.Logger = (*nonceStoreLogger)(nil)

func newNonceStoreLogger(logger *zap.Logger) *nonceStoreLogger {
	return &nonceStoreLogger{sugar: logger.Named("badger").Sugar()}
}

// badger terminates most messages with a newline
func trimFormat(format string) string {
	return strings.TrimRight(format, "\n")
}

func (l *nonceStoreLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(trimFormat(format), args...)
}

func (l *nonceStoreLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(trimFormat(format), args...)
}

func (l *nonceStoreLogger) Infof(format string, args ...interface{}) {
	l.sugar.Debugf(trimFormat(format), args...)
}

func (l *nonceStoreLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(trimFormat(format), args...)
}
