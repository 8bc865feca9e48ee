package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"wordslayer/internal/logger"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier mails batch digests through Amazon SES
type EmailNotifier struct {
	client    sesAPI
	fromEmail string
	fromName  string
	to        []string
	log       *logger.Logger
}

// NewEmailNotifier creates an SES notifier. It returns nil when fromEmail or
// the recipients are not configured.
func NewEmailNotifier(ctx context.Context, region, fromEmail, fromName string, to []string, log *logger.Logger) (*EmailNotifier, error) {
	if fromEmail == "" || len(to) == 0 {
		log.Info("Email notifications disabled: SES_FROM_EMAIL or NOTIFY_EMAIL_TO not configured")
		return nil, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email notifications enabled", "from", fromEmail, "region", region)
	return &EmailNotifier{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		to:        to,
		log:       log,
	}, nil
}

func (n *EmailNotifier) NotifyBatch(ctx context.Context, event BatchEvent) error {
	fromAddress := n.fromEmail
	if n.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: n.to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(event.Summary()),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody(event)),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(event.Body()),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send batch email for %s: %w", event.BatchNo, err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	n.log.Debug("Batch email sent", "batch", event.BatchNo, "message_id", messageID)
	return nil
}

func htmlBody(event BatchEvent) string {
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(html.EscapeString(event.Summary()))
	b.WriteString("</p>")
	if len(event.Added) > 0 {
		b.WriteString("<ul>")
		for _, w := range event.Added {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(w))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
