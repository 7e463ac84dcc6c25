package mqtt

// Publisher sends pipeline messages to a broker.
type Publisher interface {
	// Publish sends payload on topic, retrying according to the client
	// configuration.
	Publish(topic string, payload []byte) error
	// Disconnect closes the connection after in-flight messages are sent.
	Disconnect()
}
