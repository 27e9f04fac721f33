package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to a zap logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify implements Notifier
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	fields := []zap.Field{
		zap.String("category", string(n.Category)),
		zap.String("slot_id", n.SlotID),
	}
	if n.Operation != "" {
		fields = append(fields, zap.String("operation", n.Operation))
	}
	if n.Err != nil {
		fields = append(fields, zap.Error(n.Err))
	}

	switch n.Level {
	case LevelError:
		l.logger.Error(n.Message, fields...)
	case LevelWarn:
		l.logger.Warn(n.Message, fields...)
	default:
		l.logger.Info(n.Message, fields...)
	}
}
