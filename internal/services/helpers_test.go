package services

import (
	"github.com/admitbridge/admitbridge-backend/internal/logger"
)

func testLogger() *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	return log
}
