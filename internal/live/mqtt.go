// Package live pushes recorded readings to an MQTT broker so dashboards can
// subscribe instead of polling storage. Entirely optional; publish failures
// are logged and dropped, mirroring the secondary sink's contract.
package live

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"plugmon/internal/domain"
)

const publishTimeout = 2 * time.Second

type Publisher struct {
	client mqtt.Client
}

func Connect(broker string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{client: client}, nil
}

// Publish sends the reading to plugmon/readings/<device_id> at QoS 0.
func (p *Publisher) Publish(r domain.Reading) {
	payload, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Str("device_id", r.DeviceID).Msg("live reading marshal failed")
		return
	}
	token := p.client.Publish("plugmon/readings/"+r.DeviceID, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("device_id", r.DeviceID).Msg("live publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Warn().Err(err).Str("device_id", r.DeviceID).Msg("live publish failed")
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
