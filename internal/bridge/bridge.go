package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/vav-sim-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vav-sim-core/internal/point"
)

// Client is the slice of the MQTT client the bridge needs. Satisfied by
// *mqtt.Client; tests substitute a recording fake.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// WriteCommand is the inbound payload on vavsim/point/<name>/write.
// A nil Value relinquishes the slot.
type WriteCommand struct {
	ID       string   `json:"id,omitempty"`
	Priority int      `json:"priority"`
	Value    *float64 `json:"value"`
}

// WriteAck is the outbound acknowledgement on vavsim/point/<name>/write/ack.
type WriteAck struct {
	ID    string `json:"id"`
	Point string `json:"point"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Bridge adapts the point registry onto MQTT topics.
type Bridge struct {
	client   Client
	registry *point.Registry
	logger   point.Logger
	topics   mqtt.Topics
	qos      byte
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge's logger.
func WithLogger(l point.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithQoS sets the QoS used for publications and the write subscription.
func WithQoS(qos byte) Option {
	return func(b *Bridge) { b.qos = qos }
}

// New creates a bridge over the given client and registry.
func New(client Client, registry *point.Registry, opts ...Option) *Bridge {
	b := &Bridge{
		client:   client,
		registry: registry,
		logger:   point.NopLogger(),
		qos:      1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start publishes the device description and the current state of every
// point (all retained), then subscribes to write commands.
func (b *Bridge) Start() error {
	if err := b.publishDescription(); err != nil {
		return err
	}
	for _, snap := range b.registry.Snapshots() {
		if err := b.PublishUpdate(snap); err != nil {
			return err
		}
	}
	if err := b.client.Subscribe(b.topics.AllPointWrites(), b.qos, b.handleWrite); err != nil {
		return fmt.Errorf("bridge: subscribing to writes: %w", err)
	}
	b.logger.Info("mqtt bridge started", "points", b.registry.Count())
	return nil
}

// PublishUpdate publishes one point's snapshot retained on its state topic.
// Wire this as the engine's update callback.
func (b *Bridge) PublishUpdate(snap point.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("bridge: marshalling state for %q: %w", snap.Name, err)
	}
	topic := b.topics.PointState(snap.Name)
	if err := b.client.Publish(topic, payload, b.qos, true); err != nil {
		return fmt.Errorf("bridge: publishing state for %q: %w", snap.Name, err)
	}
	return nil
}

// publishDescription publishes the full point inventory retained.
func (b *Bridge) publishDescription() error {
	payload, err := json.Marshal(b.registry.Snapshots())
	if err != nil {
		return fmt.Errorf("bridge: marshalling point inventory: %w", err)
	}
	if err := b.client.Publish(b.topics.DeviceDescription(), payload, b.qos, true); err != nil {
		return fmt.Errorf("bridge: publishing point inventory: %w", err)
	}
	return nil
}

// handleWrite maps one write command onto a priority-slot write and
// acknowledges it. Handler errors are returned for the client's logging;
// command rejections are acks, not handler errors.
func (b *Bridge) handleWrite(topic string, payload []byte) error {
	name, ok := pointNameFromTopic(topic)
	if !ok {
		return fmt.Errorf("bridge: unexpected write topic %q", topic)
	}

	var cmd WriteCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.ack(name, WriteAck{ID: newCommandID(""), Point: name, Error: "malformed command payload"})
		return fmt.Errorf("bridge: decoding write for %q: %w", name, err)
	}
	cmd.ID = newCommandID(cmd.ID)

	if err := b.writeSlot(name, cmd); err != nil {
		b.ack(name, WriteAck{ID: cmd.ID, Point: name, Error: err.Error()})
		b.logger.Warn("write command rejected",
			"point", name, "priority", cmd.Priority, "command_id", cmd.ID, "error", err)
		return nil
	}

	b.ack(name, WriteAck{ID: cmd.ID, Point: name, OK: true})
	b.logger.Debug("write command applied",
		"point", name, "priority", cmd.Priority, "command_id", cmd.ID)

	// Commanded changes are state changes too.
	if p, err := b.registry.Get(name); err == nil {
		if err := b.PublishUpdate(p.Snapshot()); err != nil {
			b.logger.Warn("state publish after write failed", "point", name, "error", err)
		}
	}
	return nil
}

// writeSlot resolves the point and applies the command.
func (b *Bridge) writeSlot(name string, cmd WriteCommand) error {
	p, err := b.registry.Get(name)
	if err != nil {
		return err
	}
	if cmd.Value == nil {
		return p.WriteSlot(cmd.Priority, nil)
	}
	v := point.ValueForKind(p.Kind(), *cmd.Value)
	return p.WriteSlot(cmd.Priority, &v)
}

// ack publishes a write acknowledgement, best effort.
func (b *Bridge) ack(name string, a WriteAck) {
	payload, err := json.Marshal(a)
	if err != nil {
		b.logger.Error("marshalling write ack", "point", name, "error", err)
		return
	}
	if err := b.client.Publish(b.topics.PointWriteAck(name), payload, b.qos, false); err != nil {
		b.logger.Warn("publishing write ack failed", "point", name, "error", err)
	}
}

// pointNameFromTopic extracts the point name from vavsim/point/<name>/write.
func pointNameFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "vavsim" || parts[1] != "point" || parts[3] != "write" {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// newCommandID keeps a client-supplied ID or generates one.
func newCommandID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
