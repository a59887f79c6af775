// Package mailer 负责把邮件消息投递到 RabbitMQ 的邮件队列，由 mail worker 消费后真正发送
package mailer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/meeting-room-booking/backend/internal/domain"
)

const QueueName = "email_queue"

// Queue 包装一个 RabbitMQ 通道
type Queue struct {
	channel *amqp.Channel
}

func NewQueue(channel *amqp.Channel) *Queue {
	return &Queue{
		channel: channel,
	}
}

// Declare 声明邮件队列，生产者和消费者都要调用以保证队列存在
func Declare(channel *amqp.Channel) error {
	_, err := channel.QueueDeclare(
		QueueName,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 不独占
		false, // 等待 RabbitMQ 确认队列创建成功
		nil,
	)
	return err
}

func (q *Queue) Publish(ctx context.Context, message domain.MailMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return q.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
