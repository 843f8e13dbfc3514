package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/gridprofile/internal/config"
	"github.com/jgoulah/gridprofile/pkg/models"
)

const publishTimeout = 10 * time.Second

// mqttClient is the part of mqtt.Client the publisher uses
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher pushes finished usage profiles to an MQTT broker and/or a Home
// Assistant sensor
type Publisher struct {
	client      mqttClient
	topicPrefix string
	ha          *homeAssistant
}

// New creates a publisher for every destination enabled in cfg
func New(cfg *config.Config) (*Publisher, error) {
	p := &Publisher{topicPrefix: cfg.GetTopicPrefix()}

	if cfg.HomeAssistant.Enabled {
		ha, err := newHomeAssistant(cfg.HomeAssistant)
		if err != nil {
			return nil, err
		}
		p.ha = ha
	}

	if cfg.MQTT.Enabled {
		client, err := connectMQTT(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		p.client = client
	}

	if p.client == nil && p.ha == nil {
		return nil, fmt.Errorf("neither MQTT nor Home Assistant publishing is enabled in config")
	}
	return p, nil
}

func connectMQTT(cfg config.MQTTConfig) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "gridprofile-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// ProfileTopic returns the retained topic a user's profile is published on
func (p *Publisher) ProfileTopic(userID string) string {
	return fmt.Sprintf("%s/%s/profile", p.topicPrefix, topicSegment(userID))
}

// TypeTopic returns the topic carrying only the profile classification
func (p *Publisher) TypeTopic(userID string) string {
	return fmt.Sprintf("%s/%s/type", p.topicPrefix, topicSegment(userID))
}

// PublishMQTT publishes the profile as retained JSON plus its classification
func (p *Publisher) PublishMQTT(profile *models.UsageProfile) error {
	if p.client == nil {
		return fmt.Errorf("MQTT publishing is not enabled in config")
	}

	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	messages := []struct {
		topic   string
		payload []byte
	}{
		{p.ProfileTopic(profile.UserID), body},
		{p.TypeTopic(profile.UserID), []byte(profile.ProfileType)},
	}
	for _, m := range messages {
		token := p.client.Publish(m.topic, 1, true, m.payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publishing to %s: timed out after %s", m.topic, publishTimeout)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing to %s: %w", m.topic, err)
		}
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// topicSegment keeps a user id from introducing MQTT levels or wildcards
func topicSegment(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
