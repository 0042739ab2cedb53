package external

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"casenotify/internal/types"
)

// SNSAPI defines the subset of the SNS client used by SNSSmsSender.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Compile-time assertion that SNSSmsSender implements types.SmsSender.
var _ types.SmsSender = (*SNSSmsSender)(nil)

// SNSSmsSender implements types.SmsSender by publishing directly to a phone
// number through AWS SNS. SNS has no server-side template store, so message
// bodies are held locally keyed by template id and placeholders are expanded
// before publishing.
type SNSSmsSender struct {
	api      SNSAPI
	senderID string
	bodies   map[string]string
	logger   types.Logger
}

// NewSNSSmsSender creates a sender from an AWS config. bodies maps each SMS
// template id to its message text with {{placeholder}} markers.
func NewSNSSmsSender(awsCfg aws.Config, senderID string, bodies map[string]string, logger types.Logger) *SNSSmsSender {
	return &SNSSmsSender{
		api:      sns.NewFromConfig(awsCfg),
		senderID: senderID,
		bodies:   bodies,
		logger:   logger,
	}
}

// NewSNSSmsSenderWithAPI creates a sender with a pre-configured SNSAPI.
func NewSNSSmsSenderWithAPI(api SNSAPI, senderID string, bodies map[string]string, logger types.Logger) *SNSSmsSender {
	return &SNSSmsSender{api: api, senderID: senderID, bodies: bodies, logger: logger}
}

// SendSMS renders the template body and publishes it to the number as a
// transactional SMS.
func (s *SNSSmsSender) SendSMS(ctx context.Context, templateID, number string, placeholders types.Placeholders, reference string) error {
	body, ok := s.bodies[templateID]
	if !ok {
		return types.NewAppError(
			types.ErrCodeConfigMissingTemplate,
			fmt.Sprintf("no SMS body configured for template %q", templateID),
			nil,
		)
	}

	message := expandPlaceholders(body, placeholders)

	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	result, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(number),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamSmsProvider,
			fmt.Sprintf("SNS publish failed: %v", err),
			err,
		)
	}

	s.logger.Info("sms accepted by provider",
		"template", templateID,
		"reference", reference,
		"message_id", aws.ToString(result.MessageId),
	)
	return nil
}

// expandPlaceholders substitutes {{key}} markers with placeholder values.
// Unknown markers are left in place so a truncated message is still traceable
// to its template.
func expandPlaceholders(body string, placeholders types.Placeholders) string {
	out := body
	for key, value := range placeholders {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
