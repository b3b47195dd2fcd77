package logger

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Log глобальный логгер приложения. До Init пишет в stderr с уровнем Info.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
// В production используется JSON, иначе текстовый формат.
func Init(level string, production bool) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if production {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// ForUser возвращает запись лога с полем user_id.
func ForUser(userID uuid.UUID) *logrus.Entry {
	return Log.WithField("user_id", userID.String())
}
