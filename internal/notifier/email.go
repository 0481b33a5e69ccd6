package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"recruit-matcher/internal/model"
)

// EmailConfig 邮件配置。AgencyRecipients 按机构覆盖收件人，未命中时使用 To。
type EmailConfig struct {
	Host             string              `mapstructure:"host" yaml:"host" json:"host"`
	Port             int                 `mapstructure:"port" yaml:"port" json:"port"`
	Username         string              `mapstructure:"username" yaml:"username" json:"username"`
	Password         string              `mapstructure:"password" yaml:"password" json:"-"`
	From             string              `mapstructure:"from" yaml:"from" json:"from"`
	To               []string            `mapstructure:"to" yaml:"to" json:"to"`
	Subject          string              `mapstructure:"subject" yaml:"subject" json:"subject"`
	AgencyRecipients map[string][]string `mapstructure:"agency_recipients" yaml:"agency_recipients" json:"agency_recipients"`
}

// Enabled 判断是否配置了可用的 SMTP 目标。
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.From != "" && (len(c.To) > 0 || len(c.AgencyRecipients) > 0)
}

// EmailMessage 表示一封邮件。
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg EmailConfig) *SMTPClient {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := buildEmailData(msg)
	if err := smtp.SendMail(c.addr, c.auth, msg.From, msg.To, []byte(data)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// EmailNotifier 负责将推荐与匹配摘要发送邮件。
type EmailNotifier struct {
	cfg    EmailConfig
	sender EmailSender
}

// NewEmailNotifier 创建 EmailNotifier。
func NewEmailNotifier(cfg EmailConfig, sender EmailSender) *EmailNotifier {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	if cfg.Subject == "" {
		cfg.Subject = "Candidate matching"
	}
	return &EmailNotifier{cfg: cfg, sender: sender}
}

// NotifyRecommendation 通知需求所属机构有新的推荐；无收件人时跳过。
func (n *EmailNotifier) NotifyRecommendation(ctx context.Context, rec model.Recommendation) error {
	to := n.recipients(rec.AgencyID)
	if len(to) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("A candidate has been recommended:\n")
	fmt.Fprintf(&b, "- request: %s\n", rec.HiringRequestID)
	fmt.Fprintf(&b, "- candidate: %s\n", rec.CandidateID)
	fmt.Fprintf(&b, "- recommended by: %s\n", rec.RecommendedBy)
	fmt.Fprintf(&b, "- recommendation id: %s\n", rec.ID)

	return n.sender.Send(ctx, EmailMessage{
		From:    n.cfg.From,
		To:      to,
		Subject: n.cfg.Subject + ": new recommendation",
		Body:    b.String(),
	})
}

// NotifyDigest 发送开放需求的匹配摘要，若列表为空则跳过。
func (n *EmailNotifier) NotifyDigest(ctx context.Context, summaries []model.MatchSummary) error {
	if len(summaries) == 0 || len(n.cfg.To) == 0 {
		return nil
	}
	return n.sender.Send(ctx, EmailMessage{
		From:    n.cfg.From,
		To:      n.cfg.To,
		Subject: n.cfg.Subject + ": open requests digest",
		Body:    buildDigestBody(summaries),
	})
}

func (n *EmailNotifier) recipients(agencyID string) []string {
	if agencyID != "" {
		if to := n.cfg.AgencyRecipients[agencyID]; len(to) > 0 {
			return to
		}
	}
	return n.cfg.To
}

func buildDigestBody(summaries []model.MatchSummary) string {
	var b strings.Builder
	b.WriteString("Open hiring requests:\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "- %s (%s) needs %d, %d matching candidates\n", s.JobTitle, s.RequestID, s.Quantity, s.Matches)
	}
	return b.String()
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
