package notify

import (
	"context"

	"go.uber.org/zap"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// LogNotifier writes notifications to the application log. It is the
// default when no delivery backend is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifySuccess(ctx context.Context, to string, p domain.SuccessNotification) error {
	n.logger.Info("import notification",
		zap.String("template", SuccessTemplate),
		zap.String("to", to),
		zap.String("job_id", p.JobID),
		zap.Bool("success", p.Success),
		zap.Int("inserted", p.ProcessingStats.Inserted),
		zap.Int("updated", p.ProcessingStats.Updated),
		zap.Int("invalid_rows", p.ProcessingStats.InvalidRows),
		zap.Float64("quality_score", p.ValidationSummary.DataQualityScore),
	)
	return nil
}

func (n *LogNotifier) NotifyFailure(ctx context.Context, to string, p domain.FailureNotification) error {
	n.logger.Warn("import notification",
		zap.String("template", FailureTemplate),
		zap.String("to", to),
		zap.String("job_id", p.JobID),
		zap.String("file_name", p.FileName),
		zap.String("error", p.Error),
	)
	return nil
}
