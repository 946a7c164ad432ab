package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"weatherlog/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ReadingPublisher отправляет новые показания подписчикам.
type ReadingPublisher interface {
	PublishReading(ctx context.Context, reading *models.Reading) error
}

type MQTTConfig struct {
	Broker         string
	Port           int
	ClientID       string
	Topic          string
	ConnectTimeout time.Duration
}

const defaultConnectTimeout = 10 * time.Second

type MQTTPublisher struct {
	client         mqtt.Client
	broker         string
	topic          string
	connectTimeout time.Duration
	logger         *slog.Logger
}

func NewMQTTPublisher(config MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	broker := fmt.Sprintf("tcp://%s:%d", config.Broker, config.Port)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(config.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", config.Broker, "port", config.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	return &MQTTPublisher{
		client:         mqtt.NewClient(opts),
		broker:         broker,
		topic:          config.Topic,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
}

// Connect ждет первого подключения к брокеру не дольше connectTimeout.
// После таймаута клиент продолжает попытки в фоне, а PublishReading
// возвращает ошибку до подключения. Обрывы обрабатывает auto reconnect.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	token := p.client.Connect()

	// Ждем подключения, проверяя контекст между попытками
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("mqtt connect to %s: %w", p.broker, ctx.Err())
		default:
		}
	}
}

func (p *MQTTPublisher) PublishReading(ctx context.Context, reading *models.Reading) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := p.client.Publish(p.topic, 1, false, data)

	wait := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}

	p.logger.Debug("published reading", "topic", p.topic, "id", reading.ID)
	return nil
}

func (p *MQTTPublisher) Disconnect() {
	p.client.Disconnect(250)
	p.logger.Info("mqtt disconnected")
}
