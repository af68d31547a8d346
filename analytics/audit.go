package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunAuditLog appends one record per terminal run outcome to a file,
// separate from the process log, for offline triage analysis.
type RunAuditLog struct {
	fileName string
	logger   *zap.Logger
}

func NewRunAuditLog(fileName string) (*RunAuditLog, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	return &RunAuditLog{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (al *RunAuditLog) RecordRunSuccess(workflow string, runId string, steps int) {
	if al == nil {
		return
	}
	al.logger.Info("success", zap.String("workflow", workflow), zap.String("runId", runId), zap.Int("steps", steps))
}

func (al *RunAuditLog) RecordRunFailure(workflow string, runId string, reason string) {
	if al == nil {
		return
	}
	al.logger.Info("failure", zap.String("workflow", workflow), zap.String("runId", runId), zap.String("reason", reason))
}
