package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/meeting-room-booking/backend/internal/config"
	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/mailer"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	if err := mailer.Declare(ch); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		mailer.QueueName, // 队列
		"",               // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,            // 是否自动确认消息
		false,            // 是否独占队列
		false,            // RabbitMQ 不支持 no-local，必须设置为 false
		false,            // 是否不等待，等待 RabbitMQ 响应
		nil,              // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("收到消息", slog.String("message", string(msg.Body)))
				// 对邮件信息反序列化
				mailMessage := domain.MailMessage{}
				if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
					logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 构建邮件
				m := mail.NewMsg()
				if err := m.From(cfg.Email.SMTP.Username); err != nil {
					logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				if err := m.To(mailMessage.To); err != nil {
					logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 根据邮件类型设置主题和正文
				if err := buildMailBody(m, &mailMessage); err != nil {
					logger.Error("无法构建邮件正文", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				// 发送邮件
				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				// 确认消息
				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("mail worker 已成功关闭")
}

func buildMailBody(m *mail.Msg, message *domain.MailMessage) error {
	// MailMessage.Data 经过了一轮 JSON 编解码，这里需要再解一次
	rawData, err := json.Marshal(message.Data)
	if err != nil {
		return err
	}

	switch message.Type {
	case "register_captcha", "update_password_captcha", "update_user_captcha":
		data := domain.CaptchaMailData{}
		if err := json.Unmarshal(rawData, &data); err != nil {
			return err
		}

		switch message.Type {
		case "register_captcha":
			m.Subject("会议室预订系统 - 注册验证码")
		case "update_password_captcha":
			m.Subject("会议室预订系统 - 修改密码验证码")
		case "update_user_captcha":
			m.Subject("会议室预订系统 - 更改用户信息验证码")
		}
		m.SetBodyString(mail.TypeTextHTML, fmt.Sprintf("<p>您的验证码是 %s，%d 分钟内有效</p>", data.Captcha, data.Expiration))
	case "urge_booking":
		data := domain.UrgeMailData{}
		if err := json.Unmarshal(rawData, &data); err != nil {
			return err
		}

		m.Subject("催促管理员审批预定")
		m.SetBodyString(mail.TypeTextHTML, fmt.Sprintf("id 为 %d 的预定申请正在等待审批", data.BookingID))
	default:
		return fmt.Errorf("不支持的邮件类型: %s", message.Type)
	}

	return nil
}
