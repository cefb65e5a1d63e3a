package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/medtriage-assistant/internal/appointments"
	"github.com/wolfman30/medtriage-assistant/internal/archive"
	appconfig "github.com/wolfman30/medtriage-assistant/internal/config"
	"github.com/wolfman30/medtriage-assistant/internal/notify"
	"github.com/wolfman30/medtriage-assistant/internal/triage"
	"github.com/wolfman30/medtriage-assistant/pkg/logging"
)

// BuildAppointmentStore uses Postgres when a pool is available and an
// in-memory store otherwise.
func BuildAppointmentStore(pool *pgxpool.Pool, logger *logging.Logger) appointments.Store {
	if pool == nil {
		if logger != nil {
			logger.Warn("DATABASE_URL not set; appointments are kept in memory")
		}
		return appointments.NewMemoryStore()
	}
	return appointments.NewPostgresStore(pool)
}

// BuildEmailSender prefers SendGrid, then SES, then a logging stub.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if sender := notify.NewSendGridSender(cfg.SendGridAPIKey, notify.Identity{
		Email: cfg.SendGridFromEmail,
		Name:  cfg.SendGridFromName,
	}, logger); sender != nil {
		return sender
	}
	if awsCfg != nil {
		if sender := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.Identity{
			Email: cfg.SESFromEmail,
			Name:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifier returns nil when no front desk address is configured.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) appointments.Notifier {
	if strings.TrimSpace(cfg.FrontDeskEmail) == "" {
		return nil
	}
	n := notify.NewAppointmentNotifier(BuildEmailSender(cfg, awsCfg, logger), cfg.FrontDeskEmail, logger)
	if n == nil {
		return nil
	}
	return n
}

// BuildArchiver returns nil unless ARCHIVE_BUCKET and AWS config are set.
func BuildArchiver(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) triage.Archiver {
	bucket := strings.TrimSpace(cfg.ArchiveBucket)
	if bucket == "" || awsCfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		o.UsePathStyle = strings.TrimSpace(cfg.AWSEndpointOverride) != ""
	})
	archiver := archive.NewTranscriptArchiver(archive.NewStore(client, bucket, logger.Logger), logger.Logger)
	if archiver == nil {
		return nil
	}
	return archiver
}
