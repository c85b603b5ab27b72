package services

import "log/slog"

// Mailer 메일 발송 인터페이스
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer 실제 발송 대신 로그로 기록하는 Mailer (개발/시뮬레이션용)
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer LogMailer 생성
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send 메일 내용을 로그로 기록
func (m *LogMailer) Send(to, subject, body string) error {
	m.logger.Info("Sending email", "to", to, "subject", subject, "body", body)
	return nil
}
