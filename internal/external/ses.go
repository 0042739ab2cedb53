package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"casenotify/internal/types"
)

// SESAPI defines the subset of the SES v2 client used by SESEmailSender.
// Extracted for testability.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Compile-time assertion that SESEmailSender implements types.EmailSender.
var _ types.EmailSender = (*SESEmailSender)(nil)

// SESEmailSender implements types.EmailSender using AWS SES v2 stored
// templates. The template id resolved per event is the SES template name;
// placeholders travel as the template data. Authentication is via IAM roles,
// and the SDK provides its own transport retries, so no BaseClient wrapper is
// needed here.
type SESEmailSender struct {
	api           SESAPI
	from          string
	configSetName string
	logger        types.Logger
}

// NewSESEmailSender creates a sender from an AWS config.
func NewSESEmailSender(awsCfg aws.Config, from, configSetName string, logger types.Logger) *SESEmailSender {
	return &SESEmailSender{
		api:           sesv2.NewFromConfig(awsCfg),
		from:          from,
		configSetName: configSetName,
		logger:        logger,
	}
}

// NewSESEmailSenderWithAPI creates a sender with a pre-configured SESAPI.
// Useful for testing with a mock.
func NewSESEmailSenderWithAPI(api SESAPI, from, configSetName string, logger types.Logger) *SESEmailSender {
	return &SESEmailSender{api: api, from: from, configSetName: configSetName, logger: logger}
}

// SendEmail renders and sends the stored template to one address. The
// reference rides along as a message tag for provider-side correlation and
// deduplication.
func (s *SESEmailSender) SendEmail(ctx context.Context, templateID, address string, placeholders types.Placeholders, reference string) error {
	data, err := json.Marshal(placeholders)
	if err != nil {
		return types.NewAppError(types.ErrCodeContentMalformedTemplate, "marshal template data", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{address},
		},
		Content: &sestypes.EmailContent{
			Template: &sestypes.Template{
				TemplateName: aws.String(templateID),
				TemplateData: aws.String(string(data)),
			},
		},
	}
	if s.configSetName != "" {
		input.ConfigurationSetName = aws.String(s.configSetName)
	}
	if reference != "" {
		input.EmailTags = []sestypes.MessageTag{
			{Name: aws.String("Reference"), Value: aws.String(reference)},
		}
	}

	result, err := s.api.SendEmail(ctx, input)
	if err != nil {
		return mapSESError(err)
	}

	s.logger.Info("email accepted by provider",
		"template", templateID,
		"reference", reference,
		"message_id", aws.ToString(result.MessageId),
	)
	return nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var notFound *sestypes.NotFoundException
	if errors.As(err, &notFound) {
		return types.NewAppError(
			types.ErrCodeConfigMissingTemplate,
			fmt.Sprintf("SES template not found: %v", err),
			err,
		)
	}

	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeContentMalformedTemplate,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("SES account sending paused: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamEmailProvider,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}
