package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type EtlRedriveCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
}

// Run moves every message from the intake dead-letter queue back onto the
// intake queue, one receive batch at a time. A message is only deleted from
// the DLQ after its copy is accepted by the intake queue, so a crash mid-way
// duplicates work instead of losing it.
func (c *EtlRedriveCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()

	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}

	awsCfg, err := awsConfig(ctx, conf.Region, cfg.Cdk.Profile)
	if err != nil {
		return err
	}
	client := sqs.NewFromConfig(awsCfg)

	dlqURL, err := queueURL(ctx, client, clcdkutil.PhysicalName(conf, "etl-intake-dlq"))
	if err != nil {
		return err
	}
	intakeURL, err := queueURL(ctx, client, clcdkutil.PhysicalName(conf, "etl-intake"))
	if err != nil {
		return err
	}

	var moved int
	for {
		received, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(dlqURL),
			MaxNumberOfMessages: 10,
			VisibilityTimeout:   60,
		})
		if err != nil {
			return errors.Wrap(err, "receiving from the dead-letter queue")
		}
		if len(received.Messages) == 0 {
			break
		}

		for _, msg := range received.Messages {
			if _, err := client.SendMessage(ctx, &sqs.SendMessageInput{
				QueueUrl:    aws.String(intakeURL),
				MessageBody: msg.Body,
			}); err != nil {
				return errors.Wrapf(err, "re-sending message %s", aws.ToString(msg.MessageId))
			}
			if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(dlqURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				return errors.Wrapf(err, "deleting redriven message %s", aws.ToString(msg.MessageId))
			}
			moved++
		}
	}

	fmt.Fprintf(os.Stdout, "moved %d message(s) back onto the intake queue\n", moved)
	return nil
}

func queueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", errors.Wrapf(err, "resolving queue %s", name)
	}
	return aws.ToString(out.QueueUrl), nil
}
