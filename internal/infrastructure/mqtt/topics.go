package mqtt

import "fmt"

// Topic prefixes for the simulator's MQTT surface.
//
// Point topics use the flat scheme: vavsim/point/{name}/{state|write}
const (
	// TopicPrefix is the base for all simulator topics.
	TopicPrefix = "vavsim"

	// TopicPrefixPoint is the base for point topics.
	TopicPrefixPoint = "vavsim/point"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "vavsim/system"
)

// Topics provides builders for the simulator's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.PointState("SpaceTemperature")
//	// Returns: "vavsim/point/SpaceTemperature/state"
type Topics struct{}

// PointState returns the retained state topic for a point.
//
// Example: vavsim/point/SpaceTemperature/state
func (Topics) PointState(name string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixPoint, name)
}

// PointWrite returns the command topic for priority writes to a point.
//
// Example: vavsim/point/Damper/write
func (Topics) PointWrite(name string) string {
	return fmt.Sprintf("%s/%s/write", TopicPrefixPoint, name)
}

// PointWriteAck returns the acknowledgement topic for a write command.
//
// Example: vavsim/point/Damper/write/ack
func (Topics) PointWriteAck(name string) string {
	return fmt.Sprintf("%s/%s/write/ack", TopicPrefixPoint, name)
}

// DeviceDescription returns the retained topic carrying the full point
// inventory, published once at startup.
//
// Example: vavsim/system/points
func (Topics) DeviceDescription() string {
	return fmt.Sprintf("%s/points", TopicPrefixSystem)
}

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: vavsim/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllPointWrites returns a pattern matching write commands for every point.
//
// Pattern: vavsim/point/+/write
func (Topics) AllPointWrites() string {
	return fmt.Sprintf("%s/+/write", TopicPrefixPoint)
}

// AllPointStates returns a pattern matching all point state topics.
//
// Pattern: vavsim/point/+/state
func (Topics) AllPointStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixPoint)
}

// AllTopics returns a pattern matching every simulator topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: vavsim/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
