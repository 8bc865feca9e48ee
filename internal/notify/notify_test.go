package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wordslayer/internal/logger"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type failing struct{ err error }

func (f failing) NotifyBatch(context.Context, BatchEvent) error { return f.err }

var event = BatchEvent{UserID: 7, WordBankID: 2, BatchNo: "HW_4", Created: true, Added: []string{"apple", "pear"}}

func TestBatchEventSummary(t *testing.T) {
	want := "Batch HW_4 created for user 7 (bank 2): 2 new words"
	if got := event.Summary(); got != want {
		t.Errorf("Summary() = %v, want %v", got, want)
	}

	extended := event
	extended.Created = false
	if got := extended.Summary(); !strings.Contains(got, "extended") {
		t.Errorf("Summary() = %v, want extended", got)
	}

	if got := event.Body(); !strings.HasSuffix(got, "\napple, pear") {
		t.Errorf("Body() = %q", got)
	}
}

func TestEmailNotifier(t *testing.T) {
	ses := &fakeSES{}
	n := &EmailNotifier{client: ses, fromEmail: "bot@example.com", fromName: "WordSlayer", to: []string{"a@example.com"}, log: logger.NewNop()}

	if err := n.NotifyBatch(context.Background(), event); err != nil {
		t.Fatalf("NotifyBatch() error = %v", err)
	}
	if len(ses.inputs) != 1 {
		t.Fatalf("SendEmail called %d times, want 1", len(ses.inputs))
	}
	in := ses.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "WordSlayer <bot@example.com>" {
		t.Errorf("FromEmailAddress = %v", got)
	}
	if got := aws.ToString(in.Content.Simple.Subject.Data); got != event.Summary() {
		t.Errorf("Subject = %v, want %v", got, event.Summary())
	}
	if got := aws.ToString(in.Content.Simple.Body.Html.Data); !strings.Contains(got, "<li>pear</li>") {
		t.Errorf("Html = %v", got)
	}

	ses.err = errors.New("throttled")
	if err := n.NotifyBatch(context.Background(), event); err == nil {
		t.Error("NotifyBatch() error = nil, want error")
	}
}

func TestTelegramNotifier(t *testing.T) {
	bot := &fakeBot{}
	n := &TelegramNotifier{bot: bot, chatID: 42, log: logger.NewNop()}

	if err := n.NotifyBatch(context.Background(), event); err != nil {
		t.Fatalf("NotifyBatch() error = %v", err)
	}
	if len(bot.sent) != 1 || bot.sent[0].ChatID != 42 || bot.sent[0].Text != event.Body() {
		t.Errorf("sent = %+v", bot.sent)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.NotifyBatch(ctx, event); !errors.Is(err, context.Canceled) {
		t.Errorf("NotifyBatch() after cancel error = %v, want context.Canceled", err)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	bot := &fakeBot{}
	m := Multi{failing{errA}, &TelegramNotifier{bot: bot, chatID: 1, log: logger.NewNop()}, failing{errB}}

	err := m.NotifyBatch(context.Background(), event)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("NotifyBatch() error = %v, want both errors", err)
	}
	if len(bot.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(bot.sent))
	}

	if err := (Nop{}).NotifyBatch(context.Background(), event); err != nil {
		t.Errorf("Nop.NotifyBatch() error = %v", err)
	}
}
