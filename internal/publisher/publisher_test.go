package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/gridprofile/internal/config"
	"github.com/jgoulah/gridprofile/pkg/models"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool { return t.complete }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }

func (t *fakeToken) Error() error { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	messages     []published
	err          error
	hang         bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: c.err, complete: !c.hang}
}

func (c *fakeClient) IsConnected() bool { return !c.disconnected }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func sampleProfile() *models.UsageProfile {
	return &models.UsageProfile{
		UserID:      "home/main",
		ProfileType: models.ProfileSeasonal,
		Statistics:  models.Statistics{MeanKWh: 1150, AnnualTotalKWh: 13800},
		Seasonal:    models.SeasonalProfile{SummerWinterRatio: 2, SeasonalConfidence: 0.75},
		Projection: models.ProjectionResult{
			Method:             models.MethodSeasonalAverage,
			ProjectedAnnualKWh: 13800.004,
		},
		OverallConfidence: 0.8333333,
	}
}

func TestPublishMQTT(t *testing.T) {
	client := &fakeClient{}
	p := &Publisher{client: client, topicPrefix: "gridprofile"}

	require.NoError(t, p.PublishMQTT(sampleProfile()))

	require.Len(t, client.messages, 2)
	assert.Equal(t, "gridprofile/home_main/profile", client.messages[0].topic)
	assert.True(t, client.messages[0].retained)
	assert.Equal(t, "gridprofile/home_main/type", client.messages[1].topic)
	assert.Equal(t, "SEASONAL", string(client.messages[1].payload))

	var decoded models.UsageProfile
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &decoded))
	assert.Equal(t, "home/main", decoded.UserID)

	p.Close()
	assert.True(t, client.disconnected)
}

func TestPublishMQTTErrors(t *testing.T) {
	failing := &Publisher{client: &fakeClient{err: errors.New("not authorized")}, topicPrefix: "gp"}
	assert.ErrorContains(t, failing.PublishMQTT(sampleProfile()), "publishing to gp/home_main/profile: not authorized")

	hanging := &Publisher{client: &fakeClient{hang: true}, topicPrefix: "gp"}
	assert.ErrorContains(t, hanging.PublishMQTT(sampleProfile()), "timed out")

	disabled := &Publisher{topicPrefix: "gp"}
	assert.ErrorContains(t, disabled.PublishMQTT(sampleProfile()), "not enabled")
}

func TestPublishHomeAssistant(t *testing.T) {
	var gotPath, gotAuth string
	var gotState HAState
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotState)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p, err := New(&config.Config{HomeAssistant: config.HAConfig{
		Enabled:  true,
		URL:      server.URL + "/",
		Token:    "abc123",
		EntityID: "sensor.usage_profile",
	}})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), sampleProfile()))
	assert.Equal(t, "/api/states/sensor.usage_profile", gotPath)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, "SEASONAL", gotState.State)
	assert.Equal(t, 13800.0, gotState.Attributes["projected_annual_kwh"])
	assert.Equal(t, 0.83, gotState.Attributes["overall_confidence"])
	assert.Equal(t, "SEASONAL_AVERAGE", gotState.Attributes["projection_method"])
}

func TestPublishHomeAssistantHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("401: Unauthorized"))
	}))
	defer server.Close()

	p, err := New(&config.Config{HomeAssistant: config.HAConfig{
		Enabled: true, URL: server.URL, Token: "bad", EntityID: "sensor.usage_profile",
	}})
	require.NoError(t, err)

	err = p.PublishHomeAssistant(context.Background(), sampleProfile())
	assert.ErrorContains(t, err, "status 401")
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"nothing enabled", config.Config{}, "neither MQTT nor Home Assistant"},
		{"ha without url", config.Config{HomeAssistant: config.HAConfig{Enabled: true, Token: "t", EntityID: "e"}}, "URL is required"},
		{"ha without token", config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: "http://x", EntityID: "e"}}, "token is required"},
		{"ha without entity", config.Config{HomeAssistant: config.HAConfig{Enabled: true, URL: "http://x", Token: "t"}}, "entity_id is required"},
		{"mqtt without broker", config.Config{MQTT: config.MQTTConfig{Enabled: true}}, "broker address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
