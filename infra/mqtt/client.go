package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/fieldroute/core/monitoring"
	coremqtt "github.com/kilianp07/fieldroute/core/mqtt"
	"github.com/kilianp07/fieldroute/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
// TimeoutMS bounds connecting and each publish so an unreachable broker
// cannot stall a planning command.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TimeoutMS   int         `json:"timeout_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults fills the topic prefix, client id and retry policy.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fieldroute"
	}
	c.TopicPrefix = strings.TrimSuffix(c.TopicPrefix, "/")
	if c.ClientID == "" {
		c.ClientID = "fieldroute-" + uuid.NewString()[:8]
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 3000
	}
}

func (c Config) timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// Validate checks the QoS level.
func (c Config) Validate() error {
	if c.QoS > 2 {
		return fmt.Errorf("invalid qos %d", c.QoS)
	}
	return nil
}

// StatusTopic carries the retained online/offline state of the CLI.
func (c Config) StatusTopic() string { return c.TopicPrefix + "/status" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoClient implements the core Publisher using Eclipse Paho.
type PahoClient struct {
	cli        pahoClient
	qos        byte
	logger     logger.Logger
	status     string
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	sleep      func(time.Duration)
}

// errTimeout is reported when the broker does not acknowledge in time.
var errTimeout = errors.New("timed out")

func wait(t paho.Token, d time.Duration) error {
	if !t.WaitTimeout(d) {
		return errTimeout
	}
	return t.Error()
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

var _ coremqtt.Publisher = (*PahoClient)(nil)

// NewPahoClient connects to the broker. The status topic is set to "online"
// on every connect and to "offline" by the broker when the connection drops.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		qos:        cfg.QoS,
		logger:     log,
		status:     cfg.StatusTopic(),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    cfg.timeout(),
		sleep:      time.Sleep,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if err := wait(c.Publish(pc.status, pc.qos, true, "online"), pc.timeout); err != nil {
			log.Errorf("status publish error: %v", err)
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if err := wait(c.Connect(), pc.timeout); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetConnectTimeout(cfg.timeout())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.TopicPrefix != "" {
		opts.SetWill(cfg.StatusTopic(), "offline", cfg.QoS, true)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Publish sends payload on topic with exponential backoff between attempts.
// The final failure is reported to the monitor.
func (p *PahoClient) Publish(topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		publishErr = wait(p.cli.Publish(topic, p.qos, false, payload), p.timeout)
		if publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			p.sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	err := fmt.Errorf("%w: %s: %v", coremqtt.ErrPublishFailed, topic, publishErr)
	coremon.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return err
}

// Disconnect marks the client offline and closes the connection.
func (p *PahoClient) Disconnect() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	if err := wait(p.cli.Publish(p.status, p.qos, true, "offline"), p.timeout); err != nil {
		p.logger.Warnf("status publish error: %v", err)
	}
	p.cli.Disconnect(250)
}
