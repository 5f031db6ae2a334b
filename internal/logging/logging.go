package logging

import (
	"go.uber.org/zap"
)

// L is the process-wide sugared logger. It defaults to a no-op logger so
// library consumers that never call Init stay silent.
var L = zap.NewNop().Sugar()

// Init configures the logger. Production config at warn level keeps scan
// output clean; debug flips to the development config.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		panic("logger init: " + err.Error())
	}
	L = logger.Sugar()
}
